package resolver

import (
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/types"
)

// MetadataResolver fetches system metadata from the coordinating node,
// optionally walking the obsolescence chain to the newest version.
type MetadataResolver struct {
	cn federation.ObjectStoreClient
}

func NewMetadataResolver(cn federation.ObjectStoreClient) *MetadataResolver {
	return &MetadataResolver{cn: cn}
}

// GetMetadata returns the system metadata for pid, or for the newest
// revision superseding it when follow is set. When the coordinating node
// does not know a pid and alsoCheck is given, the walk continues there.
func (r *MetadataResolver) GetMetadata(ctx rcontext.RequestContext, pid string, follow bool, alsoCheck federation.ObjectStoreClient) (*types.SystemMetadata, error) {
	if pid == "" {
		return nil, common.ErrMissingIdentifier
	}
	ctx = ctx.ForPid(pid)

	visited := make(map[string]bool)
	client := r.cn
	fellBack := false
	current := pid
	for {
		if visited[current] {
			return nil, common.NewOperationError(common.ErrObsolescenceCycle, current, client.BaseUrl(), nil)
		}

		meta, found, err := client.GetSystemMetadata(ctx, current)
		if err != nil {
			return nil, common.NewOperationError(common.ErrResolutionFailed, current, client.BaseUrl(), err)
		}
		if !found {
			if alsoCheck != nil && !fellBack {
				ctx.Log.WithFields(logrus.Fields{
					"missing": current,
					"node":    alsoCheck.BaseUrl(),
				}).Debug("Not known to the coordinating node, checking member node")
				client = alsoCheck
				fellBack = true
				continue
			}
			return nil, common.NewOperationError(common.ErrMetadataNotFound, current, client.BaseUrl(), nil)
		}
		visited[current] = true

		if !follow || meta.ObsoletedBy == "" {
			return meta, nil
		}

		ctx.Log.Debugf("%s is obsoleted by %s", current, meta.ObsoletedBy)
		metrics.ObsolescenceHops.Inc()
		current = meta.ObsoletedBy
	}
}
