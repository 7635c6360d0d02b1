package types

// ContentRef points at the bytes of a package member. Exactly one of Path
// (a local file chosen by the user) or DatastoreId+Location (bytes staged
// during a load) is set.
type ContentRef struct {
	Path        string
	DatastoreId string
	Location    string
	SizeBytes   int64
}

func (r *ContentRef) IsLocalFile() bool {
	return r != nil && r.Path != ""
}

func (r *ContentRef) IsStaged() bool {
	return r != nil && r.DatastoreId != "" && r.Location != ""
}
