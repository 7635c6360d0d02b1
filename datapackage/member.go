package datapackage

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/t2bot/data-package-repo/types"
)

// Member is anything a package aggregates.
type Member interface {
	Pid() string
	IsDirty() bool
	Url() string
}

// PackageMember is one object in a package. A dirty member differs from
// what the federation holds and is published on the next save.
type PackageMember struct {
	Identifier string
	Dirty      bool
	// Replaces is a published pid this member's content supersedes. Saving
	// updates the newest revision of it instead of creating a new object.
	Replaces       string
	Content        *types.ContentRef
	ResolvedUrl    string
	SystemMetadata *types.SystemMetadata
	FormatId       string
}

func (m *PackageMember) Pid() string {
	return m.Identifier
}

func (m *PackageMember) IsDirty() bool {
	return m.Dirty
}

func (m *PackageMember) Url() string {
	return m.ResolvedUrl
}

// Summary is a one-line description, eg "pid.1 (needs saving, has sysmeta)".
func (m *PackageMember) Summary() string {
	flags := make([]string, 0)
	if m.Dirty {
		flags = append(flags, "needs saving")
	}
	if m.Replaces != "" {
		flags = append(flags, "replaces "+m.Replaces)
	}
	if m.Content.IsLocalFile() {
		flags = append(flags, "has an object file")
	} else if m.Content.IsStaged() {
		flags = append(flags, "has staged content ("+humanize.Bytes(uint64(m.Content.SizeBytes))+")")
	}
	if m.SystemMetadata != nil {
		flags = append(flags, "has sysmeta")
	}
	if len(flags) == 0 {
		return m.Identifier
	}
	return m.Identifier + " (" + strings.Join(flags, ", ") + ")"
}

type MetadataMember struct {
	PackageMember
}

type DataMember struct {
	PackageMember
	DocumentedBy string
}

var _ Member = (*MetadataMember)(nil)
var _ Member = (*DataMember)(nil)
