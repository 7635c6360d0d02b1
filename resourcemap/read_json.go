package resourcemap

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

func readRdfJson(body []byte) (*Graph, error) {
	doc := make(map[string]map[string][]rdfJsonObject)
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "error reading rdf/json")
	}

	subjects := make([]string, 0, len(doc))
	for s := range doc {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	g := NewGraph()
	for _, s := range subjects {
		subject := NewIRI(s)
		if strings.HasPrefix(s, "_:") {
			subject = NewBlank(s[2:])
		}
		predicates := make([]string, 0, len(doc[s]))
		for p := range doc[s] {
			predicates = append(predicates, p)
		}
		sort.Strings(predicates)
		for _, p := range predicates {
			for _, o := range doc[s][p] {
				switch o.Type {
				case "uri":
					g.Add(subject, p, NewIRI(o.Value))
				case "bnode":
					g.Add(subject, p, NewBlank(strings.TrimPrefix(o.Value, "_:")))
				case "literal":
					g.Add(subject, p, Term{Kind: Literal, Value: o.Value, Lang: o.Lang, Datatype: o.Datatype})
				default:
					return nil, errors.New("unknown rdf/json object type: " + o.Type)
				}
			}
		}
	}
	return g, nil
}
