package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/runtime"
	"github.com/t2bot/data-package-repo/common/version"
	"github.com/t2bot/data-package-repo/metrics"
	"github.com/t2bot/data-package-repo/pool"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: d1pkg [-config path] <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  show     -pid X                 load a package and list its members")
	fmt.Fprintln(os.Stderr, "  publish  -pid X -meta path ...  publish a package from local files")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "data-package-repo.yaml", "The path to the configuration")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	configEnv := os.Getenv("REPO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}
	config.Path = *configPath

	flush := runtime.SetupSentry()
	defer flush()
	defer sentry.Recover()

	runtime.SetupLogging()
	runtime.RunStartupSequence()
	defer pool.Drain()

	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	config.OnReload(runtime.ApplyReload)
	config.OnReload(func(configNow *config.MainRepoConfig, configNew *config.MainRepoConfig) {
		if configNow.Metrics != configNew.Metrics {
			metrics.Reload()
		}
	})

	metrics.Init()
	defer metrics.Stop()

	var err error
	switch flag.Arg(0) {
	case "show":
		err = runShow(flag.Args()[1:])
	case "publish":
		err = runPublish(flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		sentry.CaptureException(err)
		logrus.Error(err)
		os.Exit(1)
	}
}
