package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var Path = "data-package-repo.yaml"

var instance *MainRepoConfig
var singletonLock = &sync.Once{}
var instanceLock = &sync.RWMutex{}

func reloadConfig() (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	if _, err := os.Stat(Path); os.IsNotExist(err) {
		if err = writeDefaults(&c); err != nil {
			return nil, err
		}
	}

	files, err := configFiles()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		logrus.WithField("file", f).Debug("Loading config file")
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
	}

	if err = Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func writeDefaults(c *MainRepoConfig) error {
	logrus.WithField("path", Path).Info("No configuration found, writing defaults")
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(Path, b, 0644)
}

// configFiles lists Path itself, or every file directly inside it in name
// order so later files override earlier ones.
func configFiles() ([]string, error) {
	info, err := os.Stat(Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{Path}, nil
	}

	entries, err := os.ReadDir(Path)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(Path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func Get() *MainRepoConfig {
	singletonLock.Do(func() {
		if current() != nil {
			return
		}
		c, err := reloadConfig()
		if err != nil {
			logrus.Fatal(err)
		}
		set(c)
	})
	return current()
}

// Set replaces the active configuration. Used by embedders which build
// their configuration in code rather than from a file.
func Set(c *MainRepoConfig) {
	set(c)
}

func current() *MainRepoConfig {
	instanceLock.RLock()
	defer instanceLock.RUnlock()
	return instance
}

func set(c *MainRepoConfig) {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	instance = c
}
