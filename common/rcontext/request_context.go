package rcontext

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common"
	"github.com/t2bot/data-package-repo/common/config"
)

func Initial() RequestContext {
	return WithConfig(*config.Get())
}

// WithConfig builds a root context around an explicit configuration rather than the global one.
func WithConfig(c config.MainRepoConfig) RequestContext {
	return RequestContext{
		Context: context.Background(),
		Log:     logrus.WithFields(logrus.Fields{"nocontext": true}),
		Config:  c,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log    *logrus.Entry         // pkg.logger
	Config config.MainRepoConfig // pkg.serverConfig
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, common.ContextLogger, c.Log)
	c.Context = context.WithValue(c.Context, common.ContextServerConfig, c.Config)
	return c
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, common.ContextLogger, log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  c.Config,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}

// ForPid tags the logger and the context with the identifier being worked on.
func (c RequestContext) ForPid(pid string) RequestContext {
	r := c.LogWithFields(logrus.Fields{"pid": pid})
	r.Context = context.WithValue(r.Context, common.ContextPid, pid)
	return r
}

// WithCancel derives a cancellable child which keeps the logger and configuration.
func (c RequestContext) WithCancel() (RequestContext, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	return RequestContext{
		Context: ctx,
		Log:     c.Log,
		Config:  c.Config,
	}, cancel
}
