package datastores

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
)

func testContext(t *testing.T) rcontext.RequestContext {
	c := config.NewDefaultMainConfig()
	c.DataStores = []config.DatastoreConfig{
		{Id: "disabled", Type: "file", Enabled: false, Options: map[string]string{"path": t.TempDir()}},
		{Id: "test-" + t.Name(), Type: "file", Enabled: true, Options: map[string]string{"path": t.TempDir()}},
	}
	return rcontext.WithConfig(c)
}

func TestFilePutGetRemove(t *testing.T) {
	ctx := testContext(t)
	ds, err := Pick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-"+t.Name(), ds.Id())

	payload := []byte("some science data")
	location, written, err := ds.Put(ctx, bytes.NewReader(payload), int64(len(payload)), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)
	assert.Regexp(t, `^[0-9a-f]{2}/[0-9a-f]{2}/[0-9a-f]+$`, location)

	r, err := ds.Get(ctx, location)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	_ = r.Close()
	assert.Equal(t, payload, got)

	require.NoError(t, ds.Remove(ctx, location))
	_, err = ds.Get(ctx, location)
	assert.Error(t, err)
	assert.NoError(t, ds.Remove(ctx, location))
}

func TestFilePutSizeMismatch(t *testing.T) {
	ctx := testContext(t)
	ds, err := Pick(ctx)
	require.NoError(t, err)

	_, _, err = ds.Put(ctx, bytes.NewReader([]byte("short")), 100, "")
	assert.Error(t, err)
}

func TestFilePutCancelled(t *testing.T) {
	ctx := testContext(t)
	ds, err := Pick(ctx)
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ds.Put(cctx, bytes.NewReader([]byte("data")), -1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPickNoneEnabled(t *testing.T) {
	c := config.NewDefaultMainConfig()
	c.DataStores = []config.DatastoreConfig{}
	_, err := Pick(rcontext.WithConfig(c))
	assert.ErrorIs(t, err, ErrNoDatastore)
}

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(config.DatastoreConfig{Id: "weird", Type: "tape"})
	assert.Error(t, err)
}
