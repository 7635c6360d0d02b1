package rcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/config"
)

func TestForPidCarriesValues(t *testing.T) {
	c := config.NewDefaultMainConfig()
	ctx := WithConfig(c).ForPid("pkg.1")

	assert.Equal(t, "pkg.1", ctx.Value(common.ContextPid))
	assert.Equal(t, "pkg.1", ctx.Log.Data["pid"])
	assert.Equal(t, c.Packages.Serialization, ctx.Config.Packages.Serialization)
}

func TestWithCancelKeepsLogger(t *testing.T) {
	ctx := WithConfig(config.NewDefaultMainConfig()).ForPid("pkg.2")
	child, cancel := ctx.WithCancel()
	cancel()

	assert.Error(t, child.Err())
	assert.NoError(t, ctx.Err())
	assert.Equal(t, "pkg.2", child.Log.Data["pid"])
}
