package config

import (
	"github.com/t2bot/data-package-repo/common"
)

func NewDefaultMainConfig() MainRepoConfig {
	return MainRepoConfig{
		General: GeneralConfig{
			LogDirectory: "logs",
			LogColors:    false,
			JsonLogs:     false,
			LogLevel:     "info",
		},
		Federation: FederationConfig{
			CoordinatingNode:    "https://cn.dataone.org/cn",
			MemberNode:          "https://mn.example.org/mn",
			Anonymous:           true,
			BackoffAt:           10,
			TimeoutSeconds:      120,
			NodeCacheMinutes:    60,
			FailureCacheSeconds: 0,
		},
		Packages: PackagesConfig{
			DefaultFormat:     "",
			ChecksumAlgorithm: common.DefaultChecksumAlgorithm,
			Serialization:     common.DefaultSerialization,
			MetadataFormats:   append([]string{}, common.DefaultMetadataFormats...),
			PublicRead:        true,
			AccessPolicy:      []*AccessRuleConfig{},
			ReplicationPolicy: &ReplicationConfig{
				Allowed:        false,
				NumberReplicas: 0,
				PreferredNodes: []string{},
				BlockedNodes:   []string{},
			},
		},
		Downloads: DownloadsConfig{
			NumWorkers: 10,
		},
		DataStores: []DatastoreConfig{
			{
				Id:      "staging",
				Type:    "file",
				Enabled: true,
				Options: map[string]string{"path": "./staging"},
			},
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Environment: "",
			Debug:       false,
		},
	}
}
