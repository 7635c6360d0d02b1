package errcache

import (
	"time"

	"github.com/t2bot/data-package-repo/common/config"
)

// NotFound remembers pids the federation recently reported as absent.
var NotFound *ErrCache

func Init() {
	NotFound = NewErrCache(failureCacheDuration())
}

func AdjustSize() {
	if NotFound == nil {
		Init()
		return
	}
	NotFound.Resize(failureCacheDuration())
}

func failureCacheDuration() time.Duration {
	return time.Duration(config.Get().Federation.FailureCacheSeconds) * time.Second
}
