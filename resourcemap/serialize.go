package resourcemap

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/t2bot/data-package-repo/common"
)

const (
	DialectXml        = "xml"
	DialectPrettyXml  = "pretty-xml"
	DialectN3         = "n3"
	DialectRdfa       = "rdfa"
	DialectJson       = "json"
	DialectPrettyJson = "pretty-json"
	DialectTurtle     = "turtle"
	DialectNTriples   = "nt"
	DialectTrix       = "trix"
)

type serializer func(g *Graph, title string) ([]byte, error)

var serializers = map[string]serializer{
	DialectXml:        writeRdfXml,
	DialectPrettyXml:  writePrettyRdfXml,
	DialectN3:         writeN3,
	DialectRdfa:       writeRdfa,
	DialectJson:       writeRdfJson,
	DialectPrettyJson: writePrettyRdfJson,
	DialectTurtle:     writeTurtle,
	DialectNTriples:   writeNTriples,
	DialectTrix:       writeTrix,
}

// Dialects lists every serialization Serialize accepts.
func Dialects() []string {
	return []string{
		DialectXml, DialectPrettyXml, DialectN3, DialectRdfa, DialectJson,
		DialectPrettyJson, DialectTurtle, DialectNTriples, DialectTrix,
	}
}

func normalizeDialect(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}

// Serialize writes the resource map in the given dialect. Output is
// byte-for-byte stable for the same members.
func (m *ResourceMap) Serialize(dialect string) ([]byte, error) {
	fn, ok := serializers[normalizeDialect(dialect)]
	if !ok {
		return nil, errors.Wrap(common.ErrUnsupportedSerialization, dialect)
	}
	return fn(m.graph, "Resource map "+m.Pid)
}

// ContentType is the media type for a dialect's output.
func ContentType(dialect string) string {
	switch normalizeDialect(dialect) {
	case DialectXml, DialectPrettyXml:
		return "application/rdf+xml"
	case DialectN3:
		return "text/n3"
	case DialectRdfa:
		return "application/xhtml+xml"
	case DialectJson, DialectPrettyJson:
		return "application/rdf+json"
	case DialectTurtle:
		return "text/turtle"
	case DialectNTriples:
		return "application/n-triples"
	case DialectTrix:
		return "application/trix"
	default:
		return "application/octet-stream"
	}
}
