package common

type PkgContextKey string

const (
	ContextLogger       PkgContextKey = "pkg.logger"
	ContextServerConfig PkgContextKey = "pkg.serverConfig"
	ContextPid          PkgContextKey = "pkg.pid"
)
