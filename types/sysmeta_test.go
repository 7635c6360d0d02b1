package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCopyIsDeep(t *testing.T) {
	now := time.Now()
	orig := &SystemMetadata{
		Identifier:        "pid.1",
		AccessPolicy:      &AccessPolicy{Allow: []AccessRule{{Subjects: []string{"public"}, Permissions: []string{"read"}}}},
		ReplicationPolicy: &ReplicationPolicy{Allowed: true, PreferredNodes: []string{"urn:node:A"}},
		DateUploaded:      &now,
	}

	c := orig.Copy()
	c.Identifier = "pid.2"
	c.AccessPolicy.Allow[0].Subjects[0] = "someone"
	c.ReplicationPolicy.PreferredNodes[0] = "urn:node:B"

	assert.Equal(t, "pid.1", orig.Identifier)
	assert.Equal(t, "public", orig.AccessPolicy.Allow[0].Subjects[0])
	assert.Equal(t, "urn:node:A", orig.ReplicationPolicy.PreferredNodes[0])
	assert.NotSame(t, orig.DateUploaded, c.DateUploaded)
}

func TestCopyNil(t *testing.T) {
	var s *SystemMetadata
	assert.Nil(t, s.Copy())
}
