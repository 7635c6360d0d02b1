package resourcemap

import (
	"bytes"
	"encoding/xml"
)

const NsTrix = "http://www.w3.org/2004/03/trix/trix-1/"

func trixTerm(t Term) string {
	switch t.Kind {
	case Blank:
		return "<id>" + xmlEscape(t.Value) + "</id>"
	case Literal:
		if t.Datatype != "" {
			return `<typedLiteral datatype="` + xmlEscape(t.Datatype) + `">` + xmlEscape(t.Value) + "</typedLiteral>"
		}
		if t.Lang != "" {
			return `<plainLiteral xml:lang="` + xmlEscape(t.Lang) + `">` + xmlEscape(t.Value) + "</plainLiteral>"
		}
		return "<plainLiteral>" + xmlEscape(t.Value) + "</plainLiteral>"
	default:
		return "<uri>" + xmlEscape(t.Value) + "</uri>"
	}
}

func writeTrix(g *Graph, title string) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	buf.WriteString(`<TriX xmlns="` + NsTrix + `">` + "\n")
	buf.WriteString("  <graph>\n")
	for _, t := range g.triples {
		buf.WriteString("    <triple>\n")
		buf.WriteString("      " + trixTerm(t.Subject) + "\n")
		buf.WriteString("      " + trixTerm(t.Predicate) + "\n")
		buf.WriteString("      " + trixTerm(t.Object) + "\n")
		buf.WriteString("    </triple>\n")
	}
	buf.WriteString("  </graph>\n")
	buf.WriteString("</TriX>\n")
	return buf.Bytes(), nil
}
