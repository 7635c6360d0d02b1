package resourcemap

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/t2bot/data-package-repo/common"
)

// MemberInfo is what the builder needs to know about one package member.
type MemberInfo struct {
	Pid      string
	Url      string
	FormatId string
}

// ResourceMap is a built OAI-ORE aggregation ready to serialize.
type ResourceMap struct {
	Pid            string
	Url            string
	AggregationUrl string
	Metadata       MemberInfo
	Data           []MemberInfo
	graph          *Graph
}

func (m *ResourceMap) Graph() *Graph {
	return m.graph
}

// Builder turns a package's members into a resource map. Title and
// Description are optional and describe the aggregation.
type Builder struct {
	Title       string
	Description string
}

// Build validates every member and returns a resource map. All missing
// attributes are reported together.
func (b *Builder) Build(pkgPid string, resourceMapUrl string, meta MemberInfo, data []MemberInfo) (*ResourceMap, error) {
	var result *multierror.Error
	if pkgPid == "" {
		result = multierror.Append(result, fmt.Errorf("package has no identifier"))
	}
	if resourceMapUrl == "" {
		result = multierror.Append(result, fmt.Errorf("package has no resource map location"))
	}

	check := func(kind string, idx int, m MemberInfo) {
		name := m.Pid
		if name == "" {
			name = fmt.Sprintf("%s member #%d", kind, idx)
			result = multierror.Append(result, fmt.Errorf("%s has no identifier", name))
		}
		if m.Url == "" {
			result = multierror.Append(result, fmt.Errorf("%s has no content location", name))
		}
		if m.FormatId == "" {
			result = multierror.Append(result, fmt.Errorf("%s has no format", name))
		}
	}
	check("metadata", 0, meta)
	sorted := append([]MemberInfo{}, data...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pid < sorted[j].Pid
	})
	for i, d := range sorted {
		check("data", i, d)
		if d.Pid != "" && d.Pid == meta.Pid {
			result = multierror.Append(result, fmt.Errorf("%s is both the metadata and a data member", d.Pid))
		}
		if i > 0 && d.Pid != "" && d.Pid == sorted[i-1].Pid {
			result = multierror.Append(result, fmt.Errorf("%s is listed twice", d.Pid))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, common.NewOperationError(common.ErrCannotSerialize, pkgPid, "", err)
	}

	rm := &ResourceMap{
		Pid:            pkgPid,
		Url:            resourceMapUrl,
		AggregationUrl: resourceMapUrl + "#aggregation",
		Metadata:       meta,
		Data:           sorted,
	}
	rm.graph = b.graph(rm)
	return rm, nil
}

func (b *Builder) graph(rm *ResourceMap) *Graph {
	g := NewGraph()
	rmNode := NewIRI(rm.Url)
	aggNode := NewIRI(rm.AggregationUrl)
	metaNode := NewIRI(rm.Metadata.Url)

	g.Add(rmNode, RdfType, NewIRI(OreResourceMap))
	g.Add(rmNode, DcIdentifier, NewLiteral(rm.Pid))
	g.Add(rmNode, OreDescribes, aggNode)

	g.Add(aggNode, RdfType, NewIRI(OreAggregation))
	if b.Title != "" {
		g.Add(aggNode, DcTitle, NewLiteral(b.Title))
	}
	if b.Description != "" {
		g.Add(aggNode, DcDescription, NewLiteral(b.Description))
	}
	g.Add(aggNode, OreIsDescribedBy, rmNode)
	g.Add(aggNode, OreAggregates, metaNode)
	for _, d := range rm.Data {
		g.Add(aggNode, OreAggregates, NewIRI(d.Url))
	}

	g.Add(metaNode, DcIdentifier, NewLiteral(rm.Metadata.Pid))
	g.Add(metaNode, DcFormat, NewLiteral(rm.Metadata.FormatId))
	g.Add(metaNode, OreAggregatedBy, aggNode)
	for _, d := range rm.Data {
		g.Add(metaNode, CitoDocuments, NewIRI(d.Url))
	}

	for _, d := range rm.Data {
		dataNode := NewIRI(d.Url)
		g.Add(dataNode, DcIdentifier, NewLiteral(d.Pid))
		g.Add(dataNode, DcFormat, NewLiteral(d.FormatId))
		g.Add(dataNode, OreAggregatedBy, aggNode)
		g.Add(dataNode, CitoDocumentedBy, metaNode)
	}

	return g
}
