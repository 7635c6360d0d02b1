package federation

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/metrics"
)

// NodeDirectory maps node identifiers (urn:node:...) to base URLs using the
// coordinating node's node list.
type NodeDirectory struct {
	cn    ObjectStoreClient
	cache *cache.Cache
	mu    sync.Mutex
}

func NewNodeDirectory(cn ObjectStoreClient, ttl time.Duration) *NodeDirectory {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &NodeDirectory{cn: cn, cache: cache.New(ttl, ttl*2)}
}

// BaseUrl returns the base URL for the node, refreshing the node list on a miss.
func (d *NodeDirectory) BaseUrl(ctx rcontext.RequestContext, nodeId string) (string, bool, error) {
	if record, found := d.cache.Get(nodeId); found {
		metrics.CacheHits.With(prometheus.Labels{"cache": "nodes"}).Inc()
		return record.(string), true, nil
	}
	metrics.CacheMisses.With(prometheus.Labels{"cache": "nodes"}).Inc()

	// Only one refresh at a time; whoever waited may find the answer already cached
	d.mu.Lock()
	defer d.mu.Unlock()
	if record, found := d.cache.Get(nodeId); found {
		return record.(string), true, nil
	}

	ctx.Log.Debug("Refreshing node list from ", d.cn.BaseUrl())
	nodes, err := d.cn.ListNodes(ctx)
	if err != nil {
		return "", false, err
	}
	for _, n := range nodes {
		if n.Identifier == "" || n.BaseUrl == "" {
			continue
		}
		d.cache.Set(n.Identifier, n.BaseUrl, cache.DefaultExpiration)
	}

	if record, found := d.cache.Get(nodeId); found {
		return record.(string), true, nil
	}
	return "", false, nil
}
