package resourcemap

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/util"
)

type ParsedMember struct {
	Pid string
	Url string
}

// Aggregation is what a resource map says about a package.
type Aggregation struct {
	Pid      string
	Url      string
	Metadata *ParsedMember
	Data     []ParsedMember
}

type reader func(body []byte) (*Graph, error)

var readers = map[string]reader{
	DialectXml:        readRdfXml,
	DialectPrettyXml:  readRdfXml,
	DialectNTriples:   readNTriples,
	DialectJson:       readRdfJson,
	DialectPrettyJson: readRdfJson,
	DialectTrix:       readTrix,
	DialectTurtle:     readTurtle,
	DialectN3:         readTurtle,
}

func Parseable(dialect string) bool {
	_, ok := readers[normalizeDialect(dialect)]
	return ok
}

// ReadGraph parses a document into triples without interpreting them.
func ReadGraph(dialect string, body []byte) (*Graph, error) {
	fn, ok := readers[normalizeDialect(dialect)]
	if !ok {
		return nil, errors.Wrap(common.ErrUnsupportedSerialization, dialect)
	}
	return fn(body)
}

// Parse reads a resource map and picks out its science metadata member and
// the data members that metadata documents. Anything else in the document is
// ignored. When several nodes look like science metadata, the first one in
// document order wins.
func Parse(ctx rcontext.RequestContext, dialect string, body []byte) (*Aggregation, error) {
	g, err := ReadGraph(dialect, body)
	if err != nil {
		return nil, err
	}
	return Interpret(ctx, g)
}

func Interpret(ctx rcontext.RequestContext, g *Graph) (*Aggregation, error) {
	agg := &Aggregation{Data: make([]ParsedMember, 0)}

	for _, t := range g.triples {
		if t.Predicate.Value == RdfType && t.Object.Kind == IRI && t.Object.Value == OreResourceMap {
			agg.Url = t.Subject.Value
			agg.Pid = identifierOf(g, t.Subject)
			break
		}
	}

	candidates := make([]Term, 0)
	seen := make(map[Term]bool)
	addCandidate := func(t Term) {
		if !seen[t] {
			seen[t] = true
			candidates = append(candidates, t)
		}
	}
	for _, t := range g.triples {
		if t.Predicate.Value == CitoDocuments {
			addCandidate(t.Subject)
		} else if t.Predicate.Value == CitoDocumentedBy {
			addCandidate(t.Object)
		}
	}
	if len(candidates) == 0 {
		ctx.Log.Warn("Resource map does not name any science metadata")
		return agg, nil
	}
	if len(candidates) > 1 {
		urls := make([]string, 0, len(candidates))
		for _, c := range candidates {
			urls = append(urls, c.Value)
		}
		ctx.Log.WithFields(logrus.Fields{"candidates": urls}).Warn("Resource map names more than one science metadata object - using the first")
	}

	chosen := candidates[0]
	metaPid := identifierOf(g, chosen)
	if metaPid == "" {
		return nil, common.NewOperationError(common.ErrWrongFormat, agg.Pid, "", errors.New("science metadata node has no identifier: "+chosen.Value))
	}
	agg.Metadata = &ParsedMember{Pid: metaPid, Url: chosen.Value}

	added := make(map[Term]bool)
	for _, t := range g.triples {
		if t.Predicate.Value != CitoDocumentedBy || t.Object != chosen || t.Subject == chosen || added[t.Subject] {
			continue
		}
		added[t.Subject] = true
		pid := identifierOf(g, t.Subject)
		if pid == "" {
			ctx.Log.Warn("Skipping data member without an identifier: ", t.Subject.Value)
			continue
		}
		agg.Data = append(agg.Data, ParsedMember{Pid: pid, Url: t.Subject.Value})
	}

	return agg, nil
}

// identifierOf returns the dcterms:identifier of a node, falling back to the
// pid embedded in a resolve URL.
func identifierOf(g *Graph, node Term) string {
	for _, o := range g.Objects(node, DcIdentifier) {
		if o.Kind == Literal && o.Value != "" {
			return o.Value
		}
	}
	if node.Kind == IRI {
		if pid, ok := util.PidFromResolveUrl(node.Value); ok {
			return pid
		}
	}
	return ""
}
