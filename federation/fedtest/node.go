package fedtest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/types"
)

const (
	OpGet               = "Get"
	OpGetSystemMetadata = "GetSystemMetadata"
	OpResolve           = "Resolve"
	OpListNodes         = "ListNodes"
	OpCreate            = "Create"
	OpUpdate            = "Update"
)

// Node is an in-memory federation node. It counts calls per operation and
// can be told to fail specific operations.
type Node struct {
	baseUrl   string
	mu        sync.Mutex
	objects   map[string][]byte
	sysmeta   map[string]*types.SystemMetadata
	locations map[string][]types.ObjectLocation
	nodes     []types.Node
	calls     map[string]int
	failures  map[string]error
	published []string
	types     map[string]string
}

var _ federation.ObjectStoreClient = (*Node)(nil)

func NewNode(baseUrl string) *Node {
	return &Node{
		baseUrl:   baseUrl,
		objects:   make(map[string][]byte),
		sysmeta:   make(map[string]*types.SystemMetadata),
		locations: make(map[string][]types.ObjectLocation),
		nodes:     make([]types.Node, 0),
		calls:     make(map[string]int),
		failures:  make(map[string]error),
		published: make([]string, 0),
		types:     make(map[string]string),
	}
}

// Seed stores an object without counting a call. meta may be nil.
func (n *Node) Seed(pid string, body []byte, meta *types.SystemMetadata) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if body != nil {
		n.objects[pid] = append([]byte{}, body...)
	}
	if meta != nil {
		m := meta.Copy()
		m.Identifier = pid
		n.sysmeta[pid] = m
	}
}

// SeedLocations sets what Resolve reports for pid.
func (n *Node) SeedLocations(pid string, locations ...types.ObjectLocation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locations[pid] = append([]types.ObjectLocation{}, locations...)
}

func (n *Node) SeedNodes(nodes ...types.Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodes = append(n.nodes, nodes...)
}

// FailOn makes every later call of op return err. A nil err clears it.
func (n *Node) FailOn(op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err == nil {
		delete(n.failures, op)
	} else {
		n.failures[op] = err
	}
}

// FailOnPid makes op fail only for the given pid.
func (n *Node) FailOnPid(op string, pid string, err error) {
	n.FailOn(op+"/"+pid, err)
}

func (n *Node) Calls(op string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[op]
}

func (n *Node) TotalCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, c := range n.calls {
		total += c
	}
	return total
}

func (n *Node) ResetCalls() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = make(map[string]int)
	n.published = make([]string, 0)
}

// Published lists the pids passed to Create or Update, in call order.
func (n *Node) Published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.published...)
}

func (n *Node) Object(pid string) ([]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	b, ok := n.objects[pid]
	return b, ok
}

func (n *Node) Meta(pid string) (*types.SystemMetadata, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	m, ok := n.sysmeta[pid]
	return m.Copy(), ok
}

// ContentType is the media type a published body declared, if any.
func (n *Node) ContentType(pid string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.types[pid]
}

func (n *Node) Pids() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	pids := make([]string, 0, len(n.sysmeta))
	for pid := range n.sysmeta {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	return pids
}

// enter counts the call and returns any injected failure. Caller holds mu.
func (n *Node) enter(op string, pid string) error {
	n.calls[op]++
	if err, ok := n.failures[op+"/"+pid]; ok {
		return err
	}
	return n.failures[op]
}

func (n *Node) BaseUrl() string {
	return n.baseUrl
}

func (n *Node) Get(ctx rcontext.RequestContext, pid string) (io.ReadCloser, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(OpGet, pid); err != nil {
		return nil, false, err
	}
	b, ok := n.objects[pid]
	if !ok {
		return nil, false, nil
	}
	return io.NopCloser(bytes.NewReader(b)), true, nil
}

func (n *Node) GetSystemMetadata(ctx rcontext.RequestContext, pid string) (*types.SystemMetadata, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(OpGetSystemMetadata, pid); err != nil {
		return nil, false, err
	}
	m, ok := n.sysmeta[pid]
	if !ok {
		return nil, false, nil
	}
	return m.Copy(), true, nil
}

func (n *Node) Resolve(ctx rcontext.RequestContext, pid string) ([]types.ObjectLocation, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(OpResolve, pid); err != nil {
		return nil, false, err
	}
	locs, ok := n.locations[pid]
	if !ok {
		return nil, false, nil
	}
	return append([]types.ObjectLocation{}, locs...), true, nil
}

func (n *Node) ListNodes(ctx rcontext.RequestContext) ([]types.Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enter(OpListNodes, ""); err != nil {
		return nil, err
	}
	return append([]types.Node{}, n.nodes...), nil
}

func (n *Node) Create(ctx rcontext.RequestContext, pid string, body io.Reader, meta *types.SystemMetadata) (*types.Receipt, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err = n.enter(OpCreate, pid); err != nil {
		return nil, err
	}
	if _, exists := n.sysmeta[pid]; exists {
		return nil, federation.NewErrorResponse(409, "IdentifierNotUnique", "identifier already in use: "+pid)
	}
	if err = n.store(pid, b, meta); err != nil {
		return nil, err
	}
	n.recordType(pid, body)
	return &types.Receipt{Pid: pid, NodeUrl: n.baseUrl}, nil
}

func (n *Node) Update(ctx rcontext.RequestContext, pid string, body io.Reader, obsoletes string, meta *types.SystemMetadata) (*types.Receipt, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err = n.enter(OpUpdate, pid); err != nil {
		return nil, err
	}
	old, ok := n.sysmeta[obsoletes]
	if !ok {
		return nil, federation.NewErrorResponse(404, "NotFound", "no object to obsolete: "+obsoletes)
	}
	if old.ObsoletedBy != "" {
		return nil, federation.NewErrorResponse(409, "InvalidRequest", fmt.Sprintf("%s is already obsoleted by %s", obsoletes, old.ObsoletedBy))
	}
	if pid == obsoletes {
		return nil, federation.NewErrorResponse(409, "IdentifierNotUnique", "an object cannot obsolete itself: "+pid)
	}
	if _, exists := n.sysmeta[pid]; exists {
		return nil, federation.NewErrorResponse(409, "IdentifierNotUnique", "identifier already in use: "+pid)
	}
	m := meta.Copy()
	m.Obsoletes = obsoletes
	if err = n.store(pid, b, m); err != nil {
		return nil, err
	}
	n.recordType(pid, body)
	old.ObsoletedBy = pid
	return &types.Receipt{Pid: pid, NodeUrl: n.baseUrl}, nil
}

// store records a published object. Caller holds mu.
func (n *Node) store(pid string, body []byte, meta *types.SystemMetadata) error {
	if meta == nil {
		return errors.New("system metadata is required")
	}
	if meta.Identifier != pid {
		return federation.NewErrorResponse(400, "InvalidSystemMetadata", "identifier in system metadata does not match "+pid)
	}
	if meta.Size != int64(len(body)) {
		return federation.NewErrorResponse(400, "InvalidSystemMetadata", fmt.Sprintf("size %d does not match body of %d bytes", meta.Size, len(body)))
	}
	m := meta.Copy()
	now := time.Now().UTC()
	m.DateUploaded = &now
	m.DateSysMetadataModified = &now
	n.objects[pid] = body
	n.sysmeta[pid] = m
	n.published = append(n.published, pid)
	return nil
}

// recordType remembers a declared media type. Caller holds mu.
func (n *Node) recordType(pid string, body io.Reader) {
	if typed, ok := body.(federation.ContentTyped); ok {
		n.types[pid] = typed.ContentType()
	}
}
