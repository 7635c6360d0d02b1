package config

type GeneralConfig struct {
	LogDirectory string `yaml:"logDirectory"`
	LogColors    bool   `yaml:"logColors"`
	JsonLogs     bool   `yaml:"jsonLogs"`
	LogLevel     string `yaml:"logLevel"`
}

type FederationConfig struct {
	CoordinatingNode    string `yaml:"coordinatingNode"`
	MemberNode          string `yaml:"memberNode"`
	CertFile            string `yaml:"certFile"`
	KeyFile             string `yaml:"keyFile"`
	Anonymous           bool   `yaml:"anonymous"`
	BackoffAt           int    `yaml:"backoffAt"`
	TimeoutSeconds      int    `yaml:"timeoutSeconds"`
	NodeCacheMinutes    int    `yaml:"nodeCacheMinutes"`
	FailureCacheSeconds int    `yaml:"failureCacheSeconds"`
}

type AccessRuleConfig struct {
	Subjects    []string `yaml:"subjects,flow"`
	Permissions []string `yaml:"permissions,flow"`
}

type ReplicationConfig struct {
	Allowed        bool     `yaml:"allowed"`
	NumberReplicas int      `yaml:"numberReplicas"`
	PreferredNodes []string `yaml:"preferredNodes,flow"`
	BlockedNodes   []string `yaml:"blockedNodes,flow"`
}

type PackagesConfig struct {
	DefaultFormat           string              `yaml:"defaultFormat"`
	ChecksumAlgorithm       string              `yaml:"checksumAlgorithm"`
	Serialization           string              `yaml:"serialization"`
	Submitter               string              `yaml:"submitter"`
	RightsHolder            string              `yaml:"rightsHolder"`
	OriginMemberNode        string              `yaml:"originMemberNode"`
	AuthoritativeMemberNode string              `yaml:"authoritativeMemberNode"`
	MetadataFormats         []string            `yaml:"metadataFormats,flow"`
	PublicRead              bool                `yaml:"publicRead"`
	AccessPolicy            []*AccessRuleConfig `yaml:"accessPolicy"`
	ReplicationPolicy       *ReplicationConfig  `yaml:"replicationPolicy"`
}

type DownloadsConfig struct {
	NumWorkers int `yaml:"numWorkers"`
}

type DatastoreConfig struct {
	Id      string            `yaml:"id"`
	Type    string            `yaml:"type"`
	Enabled bool              `yaml:"enabled"`
	Options map[string]string `yaml:"opts,flow"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

type MainRepoConfig struct {
	General    GeneralConfig     `yaml:"repo"`
	Federation FederationConfig  `yaml:"federation"`
	Packages   PackagesConfig    `yaml:"packages"`
	Downloads  DownloadsConfig   `yaml:"downloads"`
	DataStores []DatastoreConfig `yaml:"datastores"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Sentry     SentryConfig      `yaml:"sentry"`
}
