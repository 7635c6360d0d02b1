package datapackage

import (
	"sort"
	"time"

	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/datastores"
	"github.com/t2bot/data-package-repo/errcache"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/pool"
	"github.com/t2bot/data-package-repo/resolver"
	"github.com/t2bot/data-package-repo/resourcemap"
)

// Clients are the handles a package uses to reach the federation. Cn, Mn and
// Dial are required; the rest fall back to process-wide defaults.
type Clients struct {
	Cn   federation.ObjectStoreClient
	Mn   federation.ObjectStoreClient
	Dial federation.Dialer

	Nodes    *federation.NodeDirectory
	Failures *errcache.ErrCache
	Queue    *pool.Queue
	Store    datastores.Datastore
}

// DataPackage is one science metadata object and the data it documents.
// It is not safe for concurrent use.
type DataPackage struct {
	pid         string
	originalPid string
	metadata    *MetadataMember
	data        map[string]*DataMember
	resourceMap *resourcemap.ResourceMap

	clients     *Clients
	identifiers *resolver.IdentifierResolver
	metadatas   *resolver.MetadataResolver
	nodes       *federation.NodeDirectory
}

func New(clients *Clients, pid string) *DataPackage {
	failures := clients.Failures
	if failures == nil {
		failures = errcache.NotFound
	}
	nodes := clients.Nodes
	if nodes == nil {
		nodes = federation.NewNodeDirectory(clients.Cn, 1*time.Hour)
	}
	return &DataPackage{
		pid:         pid,
		data:        make(map[string]*DataMember),
		clients:     clients,
		identifiers: resolver.NewIdentifierResolver(clients.Mn, clients.Cn, clients.Dial, failures),
		metadatas:   resolver.NewMetadataResolver(clients.Cn),
		nodes:       nodes,
	}
}

func (p *DataPackage) Pid() string {
	return p.pid
}

func (p *DataPackage) OriginalPid() string {
	return p.originalPid
}

// IsDirty is true when the package has been renamed or any member needs saving.
func (p *DataPackage) IsDirty() bool {
	if p.pid != p.originalPid {
		return true
	}
	if p.metadata != nil && p.metadata.IsDirty() {
		return true
	}
	for _, d := range p.data {
		if d.IsDirty() {
			return true
		}
	}
	return false
}

// Rename changes the pid the package is saved under.
func (p *DataPackage) Rename(newPid string) {
	p.pid = newPid
}

func (p *DataPackage) Metadata() *MetadataMember {
	return p.metadata
}

func (p *DataPackage) DataMember(pid string) (*DataMember, bool) {
	d, ok := p.data[pid]
	return d, ok
}

// Data returns the data members ordered by pid.
func (p *DataPackage) Data() []*DataMember {
	res := make([]*DataMember, 0, len(p.data))
	for _, d := range p.data {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Identifier < res[j].Identifier
	})
	return res
}

// ResourceMap is the map built by the last save, if any.
func (p *DataPackage) ResourceMap() *resourcemap.ResourceMap {
	return p.resourceMap
}

func (p *DataPackage) RemoveData(pid string) error {
	if _, ok := p.data[pid]; !ok {
		return common.NewOperationError(common.ErrMemberNotFound, pid, "", nil)
	}
	delete(p.data, pid)
	return nil
}

func (p *DataPackage) ClearData() {
	p.data = make(map[string]*DataMember)
}

func (p *DataPackage) RemoveMetadata() {
	p.metadata = nil
}

// Summary lists the package and its members, one per line.
func (p *DataPackage) Summary() []string {
	lines := make([]string, 0, len(p.data)+2)
	head := "package " + p.pid
	if p.originalPid != "" && p.originalPid != p.pid {
		head += " (was " + p.originalPid + ")"
	}
	if p.IsDirty() {
		head += " [modified]"
	}
	lines = append(lines, head)
	if p.metadata != nil {
		lines = append(lines, "  metadata: "+p.metadata.Summary())
	} else {
		lines = append(lines, "  metadata: none")
	}
	for _, d := range p.Data() {
		lines = append(lines, "  data: "+d.Summary())
	}
	return lines
}
