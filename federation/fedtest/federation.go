package fedtest

import (
	"errors"
	"sync"

	"github.com/t2bot/data-package-repo/federation"
	"github.com/t2bot/data-package-repo/types"
)

// Federation is a set of in-memory nodes addressable by base URL.
type Federation struct {
	mu    sync.Mutex
	nodes map[string]*Node
	dials map[string]int
}

func NewFederation() *Federation {
	return &Federation{
		nodes: make(map[string]*Node),
		dials: make(map[string]int),
	}
}

// AddNode registers a new node.
func (f *Federation) AddNode(baseUrl string) *Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := NewNode(baseUrl)
	f.nodes[baseUrl] = n
	return n
}

// AddMemberNode registers a node and lists it on cn under nodeId.
func (f *Federation) AddMemberNode(cn *Node, nodeId string, baseUrl string) *Node {
	n := f.AddNode(baseUrl)
	cn.SeedNodes(types.Node{Identifier: nodeId, Name: nodeId, BaseUrl: baseUrl, Type: types.NodeTypeMember, State: "up"})
	return n
}

func (f *Federation) Node(baseUrl string) (*Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[baseUrl]
	return n, ok
}

func (f *Federation) Dials(baseUrl string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials[baseUrl]
}

func (f *Federation) Dialer() federation.Dialer {
	return func(baseUrl string) (federation.ObjectStoreClient, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.dials[baseUrl]++
		n, ok := f.nodes[baseUrl]
		if !ok {
			return nil, errors.New("no such node: " + baseUrl)
		}
		return n, nil
	}
}
