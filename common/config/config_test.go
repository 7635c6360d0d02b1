package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	c := NewDefaultMainConfig()
	assert.NoError(t, Validate(&c))
}

func TestValidateCollectsAll(t *testing.T) {
	c := NewDefaultMainConfig()
	c.Federation.CoordinatingNode = "not a url"
	c.Federation.MemberNode = ""
	c.Federation.Anonymous = false
	c.Downloads.NumWorkers = 0

	err := Validate(&c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "federation.coordinatingNode")
	assert.Contains(t, err.Error(), "federation.memberNode is required")
	assert.Contains(t, err.Error(), "certFile")
	assert.Contains(t, err.Error(), "numWorkers")
}

func TestReloadMergesDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, "00-base.yaml"), []byte(`
federation:
  coordinatingNode: "https://cn.test.example/cn"
  memberNode: "https://mn.test.example/mn"
packages:
  defaultFormat: "text/csv"
`), 0644))
	require.NoError(t, os.WriteFile(path.Join(dir, "10-override.yaml"), []byte(`
packages:
  defaultFormat: "application/octet-stream"
downloads:
  numWorkers: 3
`), 0644))

	oldPath := Path
	defer func() { Path = oldPath }()
	Path = dir

	c, err := reloadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://cn.test.example/cn", c.Federation.CoordinatingNode)
	assert.Equal(t, "application/octet-stream", c.Packages.DefaultFormat)
	assert.Equal(t, 3, c.Downloads.NumWorkers)
	assert.Equal(t, "SHA-1", c.Packages.ChecksumAlgorithm)
}

func TestReloadWritesDefaults(t *testing.T) {
	oldPath := Path
	defer func() { Path = oldPath }()
	Path = path.Join(t.TempDir(), "generated.yaml")

	c, err := reloadConfig()
	require.NoError(t, err)
	assert.Equal(t, "xml", c.Packages.Serialization)
	_, err = os.Stat(Path)
	assert.NoError(t, err)
}
