package datapackage

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/datastores"
	"github.com/t2bot/data-package-repo/types"
	"github.com/t2bot/data-package-repo/util"
)

// openContent opens the bytes behind a member, wherever they live.
func (p *DataPackage) openContent(ctx rcontext.RequestContext, ref *types.ContentRef) (io.ReadCloser, error) {
	if ref.IsLocalFile() {
		path, err := util.ExpandPath(ref.Path)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "error opening member file")
		}
		return f, nil
	}
	if ref.IsStaged() {
		store, err := p.storeFor(ctx, ref.DatastoreId)
		if err != nil {
			return nil, err
		}
		return store.Get(ctx, ref.Location)
	}
	return nil, errors.New("member has no content")
}

func (p *DataPackage) storeFor(ctx rcontext.RequestContext, dsId string) (datastores.Datastore, error) {
	if p.clients.Store != nil && p.clients.Store.Id() == dsId {
		return p.clients.Store, nil
	}
	return datastores.OpenById(ctx, dsId)
}

// stagingStore is where downloaded member bytes go.
func (p *DataPackage) stagingStore(ctx rcontext.RequestContext) (datastores.Datastore, error) {
	if p.clients.Store != nil {
		return p.clients.Store, nil
	}
	return datastores.Pick(ctx)
}
