package common

// ResourceMapFormatId is the format identifier under which resource maps are published.
const ResourceMapFormatId = "http://www.openarchives.org/ore/terms"

const DefaultChecksumAlgorithm = "SHA-1"
const DefaultSerialization = "xml"

var DefaultMetadataFormats = []string{"eml:*", "FGDC-STD-*"}
