package types

const NodeTypeMember = "mn"
const NodeTypeCoordinating = "cn"

type Node struct {
	Identifier string `xml:"identifier"`
	Name       string `xml:"name"`
	BaseUrl    string `xml:"baseURL"`
	Type       string `xml:"type,attr"`
	State      string `xml:"state,attr"`
}

// ObjectLocation is one node reported to hold a replica of an object.
type ObjectLocation struct {
	NodeIdentifier string `xml:"nodeIdentifier"`
	BaseUrl        string `xml:"baseURL"`
	Version        string `xml:"version"`
	Url            string `xml:"url"`
	Preference     int    `xml:"preference,omitempty"`
}

type Receipt struct {
	Pid     string
	NodeUrl string
}
