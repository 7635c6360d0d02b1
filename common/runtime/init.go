package runtime

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/logging"
	"github.com/t2bot/data-package-repo/common/version"
	"github.com/t2bot/data-package-repo/datastores"
	"github.com/t2bot/data-package-repo/errcache"
	"github.com/t2bot/data-package-repo/pool"
)

// SetupSentry initializes error reporting when enabled. The returned function
// flushes pending events and should be deferred by main.
func SetupSentry() func() {
	conf := config.Get().Sentry
	if !conf.Enabled {
		return func() {}
	}
	version.SetDefaults()
	logrus.Info("Setting up Sentry for debugging...")
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         conf.Dsn,
		Environment: conf.Environment,
		Debug:       conf.Debug,
		Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
	})
	if err != nil {
		panic(err)
	}
	return func() {
		sentry.Flush(2 * time.Second)
	}
}

func SetupLogging() {
	general := config.Get().General
	err := logging.Setup(general.LogDirectory, general.LogColors, general.JsonLogs, general.LogLevel)
	if err != nil {
		panic(err)
	}
}

func RunStartupSequence() {
	version.Print(true)
	errcache.Init()
	pool.Init()
	LoadDatastores()
}

func LoadDatastores() {
	datastores.ResetOpened()

	logrus.Info("Datastores:")
	for _, ds := range config.Get().DataStores {
		if !ds.Enabled {
			logrus.Infof("\t%s (%s): disabled", ds.Type, ds.Id)
			continue
		}
		store, err := datastores.Open(ds)
		if err != nil {
			sentry.CaptureException(err)
			logrus.Fatal(err)
		}
		logrus.Infof("\t%s (%s)", ds.Type, ds.Id)

		if s3, ok := store.(interface{ EnsureBucketExists() error }); ok {
			if err = s3.EnsureBucketExists(); err != nil {
				logrus.Warn("\t\tBucket does not exist! ", err)
			}
		}
	}
}

// ApplyReload adjusts the long-lived components to a changed configuration.
func ApplyReload(configNow *config.MainRepoConfig, configNew *config.MainRepoConfig) {
	if configNow.Federation.FailureCacheSeconds != configNew.Federation.FailureCacheSeconds {
		errcache.AdjustSize()
	}
	if configNow.Downloads.NumWorkers != configNew.Downloads.NumWorkers {
		pool.AdjustSize()
	}
	LoadDatastores()
}
