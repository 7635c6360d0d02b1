package federation

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
	"github.com/t2bot/data-package-repo/types"
)

const TypesNamespace = "http://ns.dataone.org/service/types/v1"

type sysmetaDocument struct {
	XMLName xml.Name `xml:"d1:systemMetadata"`
	Xmlns   string   `xml:"xmlns:d1,attr"`
	types.SystemMetadata
}

type identifierDocument struct {
	XMLName xml.Name `xml:"d1:identifier"`
	Xmlns   string   `xml:"xmlns:d1,attr"`
	Value   string   `xml:",chardata"`
}

type objectLocationListDocument struct {
	XMLName    xml.Name               `xml:"d1:objectLocationList"`
	Xmlns      string                 `xml:"xmlns:d1,attr"`
	Identifier string                 `xml:"identifier"`
	Locations  []types.ObjectLocation `xml:"objectLocation"`
}

type nodeListDocument struct {
	XMLName xml.Name     `xml:"d1:nodeList"`
	Xmlns   string       `xml:"xmlns:d1,attr"`
	Nodes   []types.Node `xml:"node"`
}

// The decode side ignores the root element name so both prefixed and
// default-namespace documents are accepted.

type objectLocationListIn struct {
	Identifier string                 `xml:"identifier"`
	Locations  []types.ObjectLocation `xml:"objectLocation"`
}

type nodeListIn struct {
	Nodes []types.Node `xml:"node"`
}

type identifierIn struct {
	Value string `xml:",chardata"`
}

func EncodeSystemMetadata(w io.Writer, meta *types.SystemMetadata) error {
	return encode(w, sysmetaDocument{Xmlns: TypesNamespace, SystemMetadata: *meta})
}

func DecodeSystemMetadata(r io.Reader) (*types.SystemMetadata, error) {
	meta := &types.SystemMetadata{}
	if err := xml.NewDecoder(r).Decode(meta); err != nil {
		return nil, errors.Wrap(err, "error decoding system metadata")
	}
	return meta, nil
}

func EncodeIdentifier(w io.Writer, pid string) error {
	return encode(w, identifierDocument{Xmlns: TypesNamespace, Value: pid})
}

func DecodeIdentifier(r io.Reader) (string, error) {
	doc := &identifierIn{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return "", errors.Wrap(err, "error decoding identifier")
	}
	return doc.Value, nil
}

func EncodeObjectLocations(w io.Writer, pid string, locations []types.ObjectLocation) error {
	return encode(w, objectLocationListDocument{Xmlns: TypesNamespace, Identifier: pid, Locations: locations})
}

func DecodeObjectLocations(r io.Reader) ([]types.ObjectLocation, error) {
	doc := &objectLocationListIn{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "error decoding object location list")
	}
	return doc.Locations, nil
}

func EncodeNodes(w io.Writer, nodes []types.Node) error {
	return encode(w, nodeListDocument{Xmlns: TypesNamespace, Nodes: nodes})
}

func DecodeNodes(r io.Reader) ([]types.Node, error) {
	doc := &nodeListIn{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "error decoding node list")
	}
	return doc.Nodes, nil
}

func encode(w io.Writer, doc interface{}) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}
