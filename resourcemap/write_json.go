package resourcemap

import (
	"encoding/json"
)

// RDF/JSON: subject -> predicate -> list of objects.
type rdfJsonObject struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func rdfJsonSubject(t Term) string {
	if t.Kind == Blank {
		return "_:" + t.Value
	}
	return t.Value
}

func toRdfJson(g *Graph) map[string]map[string][]rdfJsonObject {
	doc := make(map[string]map[string][]rdfJsonObject)
	for _, grp := range g.groupBySubject() {
		props := make(map[string][]rdfJsonObject)
		for _, p := range grp.predicates {
			for _, o := range grp.objects[p] {
				obj := rdfJsonObject{Value: o.Value}
				switch o.Kind {
				case IRI:
					obj.Type = "uri"
				case Blank:
					obj.Type = "bnode"
					obj.Value = "_:" + o.Value
				default:
					obj.Type = "literal"
					obj.Lang = o.Lang
					obj.Datatype = o.Datatype
				}
				props[p] = append(props[p], obj)
			}
		}
		doc[rdfJsonSubject(grp.subject)] = props
	}
	return doc
}

// encoding/json sorts map keys, which keeps the output stable.
func writeRdfJson(g *Graph, title string) ([]byte, error) {
	return json.Marshal(toRdfJson(g))
}

func writePrettyRdfJson(g *Graph, title string) ([]byte, error) {
	b, err := json.MarshalIndent(toRdfJson(g), "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
