package resourcemap

import (
	"sort"
	"strconv"
	"strings"
)

const (
	NsRdf     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NsOre     = "http://www.openarchives.org/ore/terms/"
	NsCito    = "http://purl.org/spar/cito/"
	NsDcterms = "http://purl.org/dc/terms/"
	NsXsd     = "http://www.w3.org/2001/XMLSchema#"
)

const (
	RdfType          = NsRdf + "type"
	OreResourceMap   = NsOre + "ResourceMap"
	OreAggregation   = NsOre + "Aggregation"
	OreDescribes     = NsOre + "describes"
	OreIsDescribedBy = NsOre + "isDescribedBy"
	OreAggregates    = NsOre + "aggregates"
	OreAggregatedBy  = NsOre + "isAggregatedBy"
	CitoDocuments    = NsCito + "documents"
	CitoDocumentedBy = NsCito + "isDocumentedBy"
	DcIdentifier     = NsDcterms + "identifier"
	DcTitle          = NsDcterms + "title"
	DcDescription    = NsDcterms + "description"
	DcFormat         = NsDcterms + "format"
)

// prefixes used when writing; sorted by prefix when emitted
var knownPrefixes = map[string]string{
	"rdf":     NsRdf,
	"ore":     NsOre,
	"cito":    NsCito,
	"dcterms": NsDcterms,
	"xsd":     NsXsd,
}

type TermKind int

const (
	IRI TermKind = iota
	Literal
	Blank
)

type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

func NewIRI(v string) Term {
	return Term{Kind: IRI, Value: v}
}

func NewLiteral(v string) Term {
	return Term{Kind: Literal, Value: v}
}

func NewBlank(id string) Term {
	return Term{Kind: Blank, Value: id}
}

type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Graph is an ordered list of triples. Order is insertion order and is what
// every serializer follows.
type Graph struct {
	triples []Triple
	seen    map[Triple]bool
}

func NewGraph() *Graph {
	return &Graph{triples: make([]Triple, 0), seen: make(map[Triple]bool)}
}

// Add appends a triple unless it is already present.
func (g *Graph) Add(s Term, p string, o Term) {
	t := Triple{Subject: s, Predicate: NewIRI(p), Object: o}
	if g.seen[t] {
		return
	}
	g.seen[t] = true
	g.triples = append(g.triples, t)
}

func (g *Graph) Triples() []Triple {
	return append([]Triple{}, g.triples...)
}

func (g *Graph) Len() int {
	return len(g.triples)
}

// Objects returns the objects of every triple matching subject and predicate.
func (g *Graph) Objects(s Term, p string) []Term {
	res := make([]Term, 0)
	for _, t := range g.triples {
		if t.Subject == s && t.Predicate.Value == p {
			res = append(res, t.Object)
		}
	}
	return res
}

type subjectGroup struct {
	subject    Term
	predicates []string
	objects    map[string][]Term
}

// groupBySubject collects triples per subject, keeping first-seen order of
// subjects and of predicates within each subject.
func (g *Graph) groupBySubject() []*subjectGroup {
	groups := make([]*subjectGroup, 0)
	index := make(map[Term]*subjectGroup)
	for _, t := range g.triples {
		grp, ok := index[t.Subject]
		if !ok {
			grp = &subjectGroup{subject: t.Subject, predicates: make([]string, 0), objects: make(map[string][]Term)}
			index[t.Subject] = grp
			groups = append(groups, grp)
		}
		if _, ok := grp.objects[t.Predicate.Value]; !ok {
			grp.predicates = append(grp.predicates, t.Predicate.Value)
		}
		grp.objects[t.Predicate.Value] = append(grp.objects[t.Predicate.Value], t.Object)
	}
	return groups
}

// namespaceSet assigns prefixes to every namespace a graph uses.
type namespaceSet struct {
	byNs map[string]string
}

func newNamespaceSet() *namespaceSet {
	return &namespaceSet{byNs: make(map[string]string)}
}

// splitIRI splits an IRI into namespace and local name at the last '#' or '/'.
func splitIRI(iri string) (string, string) {
	idx := strings.LastIndexAny(iri, "#/")
	if idx < 0 || idx == len(iri)-1 {
		return "", iri
	}
	return iri[:idx+1], iri[idx+1:]
}

func isSimpleLocal(local string) bool {
	if local == "" {
		return false
	}
	for i, r := range local {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !(r >= '0' && r <= '9') && r != '-' {
			return false
		}
	}
	return true
}

// qname returns prefix:local for iri, registering a prefix if needed. The
// second return is false when iri cannot be written as a qualified name.
func (n *namespaceSet) qname(iri string) (string, bool) {
	ns, local := splitIRI(iri)
	if ns == "" || !isSimpleLocal(local) {
		return "", false
	}
	prefix, ok := n.byNs[ns]
	if !ok {
		for p, known := range knownPrefixes {
			if known == ns {
				prefix = p
				break
			}
		}
		if prefix == "" {
			prefix = "ns" + strconv.Itoa(len(n.byNs)+1)
		}
		n.byNs[ns] = prefix
	}
	return prefix + ":" + local, true
}

// sorted returns prefix/namespace pairs ordered by prefix.
func (n *namespaceSet) sorted() [][2]string {
	res := make([][2]string, 0, len(n.byNs))
	for ns, p := range n.byNs {
		res = append(res, [2]string{p, ns})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i][0] < res[j][0]
	})
	return res
}
