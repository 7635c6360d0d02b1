package types

import (
	"time"
)

type Checksum struct {
	Algorithm string `xml:"algorithm,attr"`
	Value     string `xml:",chardata"`
}

type AccessRule struct {
	Subjects    []string `xml:"subject"`
	Permissions []string `xml:"permission"`
}

type AccessPolicy struct {
	Allow []AccessRule `xml:"allow"`
}

type ReplicationPolicy struct {
	Allowed        bool     `xml:"replicationAllowed,attr"`
	NumberReplicas int      `xml:"numberReplicas,attr"`
	PreferredNodes []string `xml:"preferredMemberNode,omitempty"`
	BlockedNodes   []string `xml:"blockedMemberNode,omitempty"`
}

// SystemMetadata is the federation's record for one immutable object version.
type SystemMetadata struct {
	SerialVersion           int64              `xml:"serialVersion"`
	Identifier              string             `xml:"identifier"`
	FormatId                string             `xml:"formatId"`
	Size                    int64              `xml:"size"`
	Checksum                Checksum           `xml:"checksum"`
	Submitter               string             `xml:"submitter,omitempty"`
	RightsHolder            string             `xml:"rightsHolder,omitempty"`
	AccessPolicy            *AccessPolicy      `xml:"accessPolicy,omitempty"`
	ReplicationPolicy       *ReplicationPolicy `xml:"replicationPolicy,omitempty"`
	Obsoletes               string             `xml:"obsoletes,omitempty"`
	ObsoletedBy             string             `xml:"obsoletedBy,omitempty"`
	Archived                bool               `xml:"archived,omitempty"`
	DateUploaded            *time.Time         `xml:"dateUploaded,omitempty"`
	DateSysMetadataModified *time.Time         `xml:"dateSysMetadataModified,omitempty"`
	OriginMemberNode        string             `xml:"originMemberNode,omitempty"`
	AuthoritativeMemberNode string             `xml:"authoritativeMemberNode,omitempty"`
}

// Copy returns a deep copy, safe to mutate.
func (s *SystemMetadata) Copy() *SystemMetadata {
	if s == nil {
		return nil
	}
	c := *s
	if s.AccessPolicy != nil {
		ap := AccessPolicy{Allow: make([]AccessRule, 0, len(s.AccessPolicy.Allow))}
		for _, r := range s.AccessPolicy.Allow {
			ap.Allow = append(ap.Allow, AccessRule{
				Subjects:    append([]string{}, r.Subjects...),
				Permissions: append([]string{}, r.Permissions...),
			})
		}
		c.AccessPolicy = &ap
	}
	if s.ReplicationPolicy != nil {
		rp := *s.ReplicationPolicy
		rp.PreferredNodes = append([]string{}, s.ReplicationPolicy.PreferredNodes...)
		rp.BlockedNodes = append([]string{}, s.ReplicationPolicy.BlockedNodes...)
		c.ReplicationPolicy = &rp
	}
	if s.DateUploaded != nil {
		t := *s.DateUploaded
		c.DateUploaded = &t
	}
	if s.DateSysMetadataModified != nil {
		t := *s.DateSysMetadataModified
		c.DateSysMetadataModified = &t
	}
	return &c
}
