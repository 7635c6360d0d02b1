package federation

import (
	"io"

	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/types"
)

// ObjectStoreClient talks to one node of the federation. Lookups report a
// missing object as found=false with a nil error; every other failure is an error.
type ObjectStoreClient interface {
	BaseUrl() string
	Get(ctx rcontext.RequestContext, pid string) (io.ReadCloser, bool, error)
	GetSystemMetadata(ctx rcontext.RequestContext, pid string) (*types.SystemMetadata, bool, error)
	Resolve(ctx rcontext.RequestContext, pid string) ([]types.ObjectLocation, bool, error)
	ListNodes(ctx rcontext.RequestContext) ([]types.Node, error)
	Create(ctx rcontext.RequestContext, pid string, body io.Reader, meta *types.SystemMetadata) (*types.Receipt, error)
	// Update publishes pid as the successor of obsoletes.
	Update(ctx rcontext.RequestContext, pid string, body io.Reader, obsoletes string, meta *types.SystemMetadata) (*types.Receipt, error)
}

// Dialer produces a client for the node at baseUrl.
type Dialer func(baseUrl string) (ObjectStoreClient, error)

// ContentTyped is a body which knows its own media type. Bodies without one
// are sniffed when published.
type ContentTyped interface {
	io.Reader
	ContentType() string
}

type typedBody struct {
	io.Reader
	contentType string
}

func (b *typedBody) ContentType() string {
	return b.contentType
}

func (b *typedBody) Close() error {
	if c, ok := b.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithContentType labels r with a media type for publishing.
func WithContentType(r io.Reader, contentType string) io.ReadCloser {
	return &typedBody{Reader: r, contentType: contentType}
}
