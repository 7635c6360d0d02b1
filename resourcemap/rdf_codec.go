package resourcemap

import (
	"bytes"
	"io"
	"strings"

	"github.com/knakk/rdf"
	"github.com/pkg/errors"
)

const xsdString = NsXsd + "string"

func toRdfTerm(t Term) (rdf.Term, error) {
	switch t.Kind {
	case Blank:
		return rdf.NewBlank(t.Value)
	case Literal:
		if t.Lang != "" {
			return rdf.NewLangLiteral(t.Value, t.Lang)
		}
		if t.Datatype == "" || t.Datatype == xsdString {
			return rdf.NewLiteral(t.Value)
		}
		dt, err := rdf.NewIRI(t.Datatype)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(t.Value, dt), nil
	default:
		return rdf.NewIRI(t.Value)
	}
}

func fromRdfTerm(t rdf.Term) Term {
	switch v := t.(type) {
	case rdf.Blank:
		return NewBlank(strings.TrimPrefix(v.String(), "_:"))
	case rdf.Literal:
		lit := NewLiteral(v.String())
		lit.Lang = v.Lang()
		if lit.Lang == "" && v.DataType.String() != xsdString {
			lit.Datatype = v.DataType.String()
		}
		return lit
	default:
		return NewIRI(t.String())
	}
}

func toRdfTriple(t Triple) (rdf.Triple, error) {
	s, err := toRdfTerm(t.Subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := toRdfTerm(t.Predicate)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := toRdfTerm(t.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	subj, ok := s.(rdf.Subject)
	if !ok {
		return rdf.Triple{}, errors.New("a literal cannot be a subject")
	}
	pred, ok := p.(rdf.Predicate)
	if !ok {
		return rdf.Triple{}, errors.New("predicate must be an IRI")
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: o.(rdf.Object)}, nil
}

func decodeTriples(body []byte, format rdf.Format) (*Graph, error) {
	dec := rdf.NewTripleDecoder(bytes.NewReader(body), format)
	g := NewGraph()
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			return g, nil
		}
		if err != nil {
			return nil, err
		}
		g.Add(fromRdfTerm(t.Subj), t.Pred.String(), fromRdfTerm(t.Obj))
	}
}

// encodeTriples writes the graph in insertion order.
func encodeTriples(g *Graph, format rdf.Format) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := rdf.NewTripleEncoder(buf, format)
	for _, t := range g.triples {
		rt, err := toRdfTriple(t)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode statement about %s", t.Subject.Value)
		}
		if err = enc.Encode(rt); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readRdfXml(body []byte) (*Graph, error) {
	g, err := decodeTriples(body, rdf.RDFXML)
	return g, errors.Wrap(err, "error reading rdf/xml")
}

func readNTriples(body []byte) (*Graph, error) {
	g, err := decodeTriples(body, rdf.NTriples)
	return g, errors.Wrap(err, "error reading n-triples")
}

// readTurtle also reads the n3 this package writes, which is plain Turtle.
func readTurtle(body []byte) (*Graph, error) {
	g, err := decodeTriples(body, rdf.Turtle)
	return g, errors.Wrap(err, "error reading turtle")
}

func writeNTriples(g *Graph, title string) ([]byte, error) {
	return encodeTriples(g, rdf.NTriples)
}

func writeTurtle(g *Graph, title string) ([]byte, error) {
	return encodeTriples(g, rdf.Turtle)
}

// N3 is a superset of Turtle, so the Turtle output is valid N3.
func writeN3(g *Graph, title string) ([]byte, error) {
	return encodeTriples(g, rdf.Turtle)
}
