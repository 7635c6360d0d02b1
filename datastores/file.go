package datastores

import (
	"context"
	"errors"
	"io"
	"os"
	"path"

	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/util"
)

type fileDatastore struct {
	id       string
	basePath string
}

func newFile(ds config.DatastoreConfig) (*fileDatastore, error) {
	basePath, ok := ds.Options["path"]
	if !ok || basePath == "" {
		return nil, errors.New("invalid configuration: missing path for datastore " + ds.Id)
	}
	expanded, err := util.ExpandPath(basePath)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(expanded, 0755); err != nil {
		return nil, err
	}
	return &fileDatastore{id: ds.Id, basePath: expanded}, nil
}

func (f *fileDatastore) Id() string {
	return f.id
}

func (f *fileDatastore) Put(ctx context.Context, data io.Reader, size int64, contentType string) (string, int64, error) {
	var objectName string
	var targetFile string
	var err error

	// Ensure unique name
	exists := true
	attempts := 0
	for exists {
		objectName, err = util.GenerateObjectName()
		if err != nil {
			return "", 0, err
		}

		attempts++
		if attempts > 10 {
			return "", 0, errors.New("failed to generate suitable file name for staging")
		}

		targetFile = path.Join(f.basePath, objectName)
		_, err = os.Stat(targetFile)
		if err != nil && !os.IsNotExist(err) {
			return "", 0, err
		} else if err != nil && os.IsNotExist(err) {
			exists = false
		}
	}

	if err = os.MkdirAll(path.Dir(targetFile), 0755); err != nil {
		return "", 0, err
	}
	file, err := os.OpenFile(targetFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, err
	}
	written, err := io.Copy(file, &ctxReader{ctx: ctx, r: data})
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && size >= 0 && written != size {
		err = errors.New("staged size does not match expected size")
	}
	if err != nil {
		_ = os.Remove(targetFile)
		return "", 0, err
	}

	return objectName, written, nil
}

func (f *fileDatastore) Get(ctx context.Context, location string) (io.ReadCloser, error) {
	return os.Open(path.Join(f.basePath, location))
}

func (f *fileDatastore) Remove(ctx context.Context, location string) error {
	err := os.Remove(path.Join(f.basePath, location))
	if err != nil && os.IsNotExist(err) {
		return nil // not existing means it was deleted, as far as we care
	}
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
