package datastores

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
)

// Datastore stages member bytes between a load and a later save.
type Datastore interface {
	Id() string
	// Put stores the stream under a fresh object name. A negative size means unknown.
	Put(ctx context.Context, data io.Reader, size int64, contentType string) (location string, written int64, err error)
	Get(ctx context.Context, location string) (io.ReadCloser, error)
	Remove(ctx context.Context, location string) error
}

var ErrNoDatastore = errors.New("no usable datastore configured")

var opened = &sync.Map{}

func ResetOpened() {
	opened = &sync.Map{}
}

func Open(ds config.DatastoreConfig) (Datastore, error) {
	if val, ok := opened.Load(ds.Id); ok {
		return val.(Datastore), nil
	}

	var store Datastore
	var err error
	if ds.Type == "s3" {
		store, err = newS3(ds)
	} else if ds.Type == "file" {
		store, err = newFile(ds)
	} else {
		return nil, errors.New("unknown datastore type: " + ds.Type)
	}
	if err != nil {
		return nil, err
	}

	actual, _ := opened.LoadOrStore(ds.Id, store)
	return actual.(Datastore), nil
}

func Get(ctx rcontext.RequestContext, dsId string) (config.DatastoreConfig, bool) {
	for _, c := range ctx.Config.DataStores {
		if c.Id == dsId {
			return c, true
		}
	}
	return config.DatastoreConfig{}, false
}

func OpenById(ctx rcontext.RequestContext, dsId string) (Datastore, error) {
	conf, ok := Get(ctx, dsId)
	if !ok {
		return nil, errors.New("unknown datastore: " + dsId)
	}
	return Open(conf)
}

// Pick returns the first enabled datastore.
func Pick(ctx rcontext.RequestContext) (Datastore, error) {
	for _, conf := range ctx.Config.DataStores {
		if !conf.Enabled {
			continue
		}
		return Open(conf)
	}
	return nil, ErrNoDatastore
}
