package resourcemap

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/t2bot/data-package-repo/common"
)

func xmlEscape(s string) string {
	buf := &bytes.Buffer{}
	_ = xml.EscapeText(buf, []byte(s))
	return buf.String()
}

func subjectAttr(t Term) string {
	if t.Kind == Blank {
		return `rdf:nodeID="` + xmlEscape(t.Value) + `"`
	}
	return `rdf:about="` + xmlEscape(t.Value) + `"`
}

func writeRdfXmlProperty(buf *bytes.Buffer, indent string, name string, o Term) {
	buf.WriteString(indent + "<" + name)
	switch o.Kind {
	case IRI:
		buf.WriteString(` rdf:resource="` + xmlEscape(o.Value) + `"/>` + "\n")
	case Blank:
		buf.WriteString(` rdf:nodeID="` + xmlEscape(o.Value) + `"/>` + "\n")
	default:
		if o.Lang != "" {
			buf.WriteString(` xml:lang="` + xmlEscape(o.Lang) + `"`)
		} else if o.Datatype != "" {
			buf.WriteString(` rdf:datatype="` + xmlEscape(o.Datatype) + `"`)
		}
		buf.WriteString(">" + xmlEscape(o.Value) + "</" + name + ">\n")
	}
}

func predicateName(ns *namespaceSet, p string) (string, error) {
	q, ok := ns.qname(p)
	if !ok {
		return "", fmt.Errorf("%w: predicate %s cannot be written as an XML element", common.ErrCannotSerialize, p)
	}
	return q, nil
}

func wrapRdfXml(ns *namespaceSet, body []byte) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	buf.WriteString("<rdf:RDF")
	for _, pair := range ns.sorted() {
		buf.WriteString("\n   xmlns:" + pair[0] + `="` + xmlEscape(pair[1]) + `"`)
	}
	buf.WriteString("\n>\n")
	buf.Write(body)
	buf.WriteString("</rdf:RDF>\n")
	return buf.Bytes()
}

func writeRdfXml(g *Graph, title string) ([]byte, error) {
	ns := newNamespaceSet()
	_, _ = ns.qname(RdfType)
	body := &bytes.Buffer{}
	for _, grp := range g.groupBySubject() {
		body.WriteString("  <rdf:Description " + subjectAttr(grp.subject) + ">\n")
		for _, p := range grp.predicates {
			name, err := predicateName(ns, p)
			if err != nil {
				return nil, err
			}
			for _, o := range grp.objects[p] {
				writeRdfXmlProperty(body, "    ", name, o)
			}
		}
		body.WriteString("  </rdf:Description>\n")
	}
	return wrapRdfXml(ns, body.Bytes()), nil
}

// writePrettyRdfXml uses the first rdf:type of each subject as its element name.
func writePrettyRdfXml(g *Graph, title string) ([]byte, error) {
	ns := newNamespaceSet()
	_, _ = ns.qname(RdfType)
	body := &bytes.Buffer{}
	for i, grp := range g.groupBySubject() {
		if i > 0 {
			body.WriteString("\n")
		}
		element := "rdf:Description"
		var usedType *Term
		for _, t := range grp.objects[RdfType] {
			if t.Kind != IRI {
				continue
			}
			if q, ok := ns.qname(t.Value); ok {
				element = q
				tt := t
				usedType = &tt
				break
			}
		}

		body.WriteString("  <" + element + " " + subjectAttr(grp.subject) + ">\n")
		for _, p := range grp.predicates {
			name, err := predicateName(ns, p)
			if err != nil {
				return nil, err
			}
			for _, o := range grp.objects[p] {
				if p == RdfType && usedType != nil && o == *usedType {
					continue
				}
				writeRdfXmlProperty(body, "    ", name, o)
			}
		}
		body.WriteString("  </" + element + ">\n")
	}
	return wrapRdfXml(ns, body.Bytes()), nil
}
