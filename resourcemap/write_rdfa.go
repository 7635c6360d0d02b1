package resourcemap

import (
	"bytes"
	"html"
)

func rdfaCurie(ns *namespaceSet, iri string) string {
	if q, ok := ns.qname(iri); ok {
		return q
	}
	return "[" + iri + "]"
}

func writeRdfa(g *Graph, title string) ([]byte, error) {
	ns := newNamespaceSet()
	body := &bytes.Buffer{}
	for _, grp := range g.groupBySubject() {
		about := grp.subject.Value
		if grp.subject.Kind == Blank {
			about = "_:" + about
		}
		body.WriteString(`    <div about="` + html.EscapeString(about) + `"`)
		if types := grp.objects[RdfType]; len(types) > 0 {
			body.WriteString(` typeof="`)
			for i, t := range types {
				if i > 0 {
					body.WriteString(" ")
				}
				body.WriteString(html.EscapeString(rdfaCurie(ns, t.Value)))
			}
			body.WriteString(`"`)
		}
		body.WriteString(">\n")
		for _, p := range grp.predicates {
			if p == RdfType {
				continue
			}
			curie := html.EscapeString(rdfaCurie(ns, p))
			for _, o := range grp.objects[p] {
				switch o.Kind {
				case IRI:
					body.WriteString(`      <a rel="` + curie + `" href="` + html.EscapeString(o.Value) + `">` + html.EscapeString(o.Value) + "</a>\n")
				case Blank:
					body.WriteString(`      <span rel="` + curie + `" resource="_:` + html.EscapeString(o.Value) + `"></span>` + "\n")
				default:
					body.WriteString(`      <span property="` + curie + `"`)
					if o.Datatype != "" {
						body.WriteString(` datatype="` + html.EscapeString(rdfaCurie(ns, o.Datatype)) + `"`)
					}
					if o.Lang != "" {
						body.WriteString(` xml:lang="` + html.EscapeString(o.Lang) + `"`)
					}
					body.WriteString(">" + html.EscapeString(o.Value) + "</span>\n")
				}
			}
		}
		body.WriteString("    </div>\n")
	}

	buf := &bytes.Buffer{}
	buf.WriteString("<!DOCTYPE html>\n")
	buf.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" prefix="`)
	for i, pair := range ns.sorted() {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(html.EscapeString(pair[0] + ": " + pair[1]))
	}
	buf.WriteString(`">` + "\n")
	buf.WriteString("  <head>\n    <title>" + html.EscapeString(title) + "</title>\n  </head>\n")
	buf.WriteString("  <body>\n")
	buf.Write(body.Bytes())
	buf.WriteString("  </body>\n</html>\n")
	return buf.Bytes(), nil
}
