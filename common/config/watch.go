package config

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloadFn is invoked after a live reload with the configuration before and after the change.
type ReloadFn func(configNow *MainRepoConfig, configNew *MainRepoConfig)

var reloadFns = make([]ReloadFn, 0)
var reloadLock = &sync.Mutex{}

func OnReload(fn ReloadFn) {
	reloadLock.Lock()
	defer reloadLock.Unlock()
	reloadFns = append(reloadFns, fn)
}

// Watch reloads the configuration when Path changes. Events are debounced so
// an editor writing several times triggers one reload.
func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}
	if err = watcher.Add(Path); err != nil {
		logrus.Fatal(err)
	}

	debounced := debounce.New(time.Second)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Error("Config watcher failed")
			}
		}
	}()
	return watcher
}

func onFileChanged() {
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.WithError(err).Error("Ignoring invalid configuration change")
		return
	}
	logrus.Info("Configuration reloaded")
	set(configNew)

	if configNew.General.LogDirectory != configNow.General.LogDirectory {
		logrus.Warn("Log configuration changed - restart to apply changes")
	}
	if configNew.Federation.CertFile != configNow.Federation.CertFile || configNew.Federation.KeyFile != configNow.Federation.KeyFile {
		logrus.Warn("Client certificate changed - new clients will present the new certificate")
	}

	reloadLock.Lock()
	fns := append([]ReloadFn{}, reloadFns...)
	reloadLock.Unlock()
	for _, fn := range fns {
		fn(configNow, configNew)
	}
}
