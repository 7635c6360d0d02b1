package resourcemap

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

type trixValue struct {
	Value    string `xml:",chardata"`
	Datatype string `xml:"datatype,attr"`
	Lang     string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
}

func readTrix(body []byte) (*Graph, error) {
	g := NewGraph()
	dec := xml.NewDecoder(bytes.NewReader(body))
	var terms []Term
	inTriple := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return g, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading trix")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "triple" {
				inTriple = true
				terms = make([]Term, 0, 3)
				continue
			}
			if !inTriple {
				continue
			}
			v := trixValue{}
			if err = dec.DecodeElement(&v, &t); err != nil {
				return nil, errors.Wrap(err, "error reading trix term")
			}
			switch t.Name.Local {
			case "uri":
				terms = append(terms, NewIRI(v.Value))
			case "id":
				terms = append(terms, NewBlank(v.Value))
			case "plainLiteral":
				terms = append(terms, Term{Kind: Literal, Value: v.Value, Lang: v.Lang})
			case "typedLiteral":
				terms = append(terms, Term{Kind: Literal, Value: v.Value, Datatype: v.Datatype})
			default:
				return nil, errors.New("unexpected trix element: " + t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "triple" && inTriple {
				inTriple = false
				if len(terms) != 3 || terms[1].Kind != IRI {
					return nil, errors.New("malformed trix triple")
				}
				g.Add(terms[0], terms[1].Value, terms[2])
			}
		}
	}
}
