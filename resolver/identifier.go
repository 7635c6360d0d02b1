package resolver

import (
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/errcache"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/util"
)

// Location is where an object was found, along with its open content stream.
// The caller closes Body.
type Location struct {
	Pid     string
	NodeUrl string
	Body    io.ReadCloser
}

// IdentifierResolver finds the bytes of an object, asking the primary node
// first and falling back to the replicas the coordinating node knows about.
type IdentifierResolver struct {
	primary  federation.ObjectStoreClient
	cn       federation.ObjectStoreClient
	dial     federation.Dialer
	failures *errcache.ErrCache
}

// NewIdentifierResolver builds a resolver. failures may be nil.
func NewIdentifierResolver(primary federation.ObjectStoreClient, cn federation.ObjectStoreClient, dial federation.Dialer, failures *errcache.ErrCache) *IdentifierResolver {
	return &IdentifierResolver{
		primary:  primary,
		cn:       cn,
		dial:     dial,
		failures: failures,
	}
}

func (r *IdentifierResolver) ResolveLocation(ctx rcontext.RequestContext, pid string) (*Location, error) {
	if pid == "" {
		return nil, common.ErrMissingIdentifier
	}
	ctx = ctx.ForPid(pid)

	cacheKey := failureKey(pid)
	if err := r.failures.Get(cacheKey); err != nil {
		ctx.Log.Debug("Returning remembered failure")
		return nil, err
	}

	loc, err := r.resolve(ctx, pid)
	if err != nil && errors.Is(err, common.ErrObjectNotFound) {
		r.failures.Set(cacheKey, err)
	}
	return loc, err
}

// Forget drops a remembered not-found for pid, eg once it has been published.
func (r *IdentifierResolver) Forget(pid string) {
	r.failures.Forget(failureKey(pid))
}

func failureKey(pid string) string {
	return "resolve:" + pid
}

func (r *IdentifierResolver) resolve(ctx rcontext.RequestContext, pid string) (*Location, error) {
	body, found, err := r.primary.Get(ctx, pid)
	if err != nil {
		return nil, common.NewOperationError(common.ErrResolutionFailed, pid, r.primary.BaseUrl(), err)
	}
	if found {
		metrics.ResolveFallbacks.With(prometheus.Labels{"outcome": "primary"}).Inc()
		return &Location{Pid: pid, NodeUrl: r.primary.BaseUrl(), Body: body}, nil
	}

	ctx.Log.Debug("Not on primary node, asking the coordinating node")
	locations, found, err := r.cn.Resolve(ctx, pid)
	if err != nil {
		return nil, common.NewOperationError(common.ErrResolutionFailed, pid, r.cn.BaseUrl(), err)
	}
	if !found || len(locations) == 0 {
		metrics.ResolveFallbacks.With(prometheus.Labels{"outcome": "none"}).Inc()
		return nil, common.NewOperationError(common.ErrObjectNotFound, pid, r.cn.BaseUrl(), nil)
	}

	for _, candidate := range locations {
		if util.SameBaseUrl(candidate.BaseUrl, r.primary.BaseUrl()) {
			continue
		}
		log := ctx.Log.WithFields(logrus.Fields{"node": candidate.BaseUrl})

		client, err := r.dial(candidate.BaseUrl)
		if err != nil {
			log.Warn("Error connecting to replica: ", err)
			continue
		}
		body, found, err := client.Get(ctx, pid)
		if err != nil {
			log.Warn("Error fetching from replica: ", err)
			continue
		}
		if !found {
			log.Debug("Replica does not have the object")
			continue
		}

		metrics.ResolveFallbacks.With(prometheus.Labels{"outcome": "candidate"}).Inc()
		return &Location{Pid: pid, NodeUrl: client.BaseUrl(), Body: body}, nil
	}

	metrics.ResolveFallbacks.With(prometheus.Labels{"outcome": "none"}).Inc()
	return nil, common.NewOperationError(common.ErrObjectNotFound, pid, r.cn.BaseUrl(), nil)
}
