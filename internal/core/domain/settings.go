package domain

// Settings holds the tool-wide configuration loaded from anvil.yaml and the environment.
type Settings struct {
	Cache        CacheSettings  `yaml:"cache"`
	Remote       RemoteSettings `yaml:"remote"`
	Java         JavaSettings   `yaml:"java"`
	Repositories []string       `yaml:"repositories"`
	Log          LogSettings    `yaml:"log"`
}

// CacheSettings configures the local build cache.
type CacheSettings struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	// CrossProcessLock serializes executions of the same key across processes with a lock file.
	CrossProcessLock bool `yaml:"crossProcessLock"`
}

// RemoteSettings configures the optional S3-compatible remote cache.
type RemoteSettings struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
	// Push uploads local results; otherwise the remote is read-only.
	Push bool `yaml:"push"`
}

// Configured reports whether a remote cache endpoint and bucket are set.
func (r RemoteSettings) Configured() bool {
	return r.Endpoint != "" && r.Bucket != ""
}

// JavaSettings configures the JVM used to run tools.
type JavaSettings struct {
	Executable string `yaml:"executable"`
}

// LogSettings configures log output.
type LogSettings struct {
	JSON    bool `yaml:"json"`
	Verbose bool `yaml:"verbose"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Cache: CacheSettings{
			Enabled: true,
			Dir:     DefaultCachePath(),
		},
		Remote: RemoteSettings{UseSSL: true},
		Java:   JavaSettings{Executable: "java"},
	}
}
