package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/EDemerzel/nuget-inspector/pkg/errors"
	"github.com/EDemerzel/nuget-inspector/pkg/registry"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given. A missing default file is not an error.
const defaultConfigFile = ".nuget-inspector.toml"

// duration wraps time.Duration so TOML values can be written as "500ms".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// fileConfig is the on-disk configuration shape. Every field is optional;
// unset fields keep their defaults, and command flags win over file values.
type fileConfig struct {
	Registry struct {
		BaseURL       string   `toml:"base_url"`
		GalleryURL    string   `toml:"gallery_url"`
		TrustedHosts  []string `toml:"trusted_hosts"`
		MaxConcurrent int      `toml:"max_concurrent"`
		Timeout       duration `toml:"timeout"`
		RetryAttempts int      `toml:"retry_attempts"`
		RetryDelay    duration `toml:"retry_delay"`
		RetryBackoff  float64  `toml:"retry_backoff"`
		RetryMaxDelay duration `toml:"retry_max_delay"`
		RetryJitter   *bool    `toml:"retry_jitter"`
		CacheTTL      duration `toml:"cache_ttl"`
	} `toml:"registry"`

	Cache struct {
		Dir      string `toml:"dir"`
		Redis    string `toml:"redis"`
		Disabled bool   `toml:"disabled"`
	} `toml:"cache"`

	Audit struct {
		IncludeTransitive bool   `toml:"include_transitive"`
		Format            string `toml:"format"`
	} `toml:"audit"`
}

// loadConfig reads the TOML config file at path. An empty path falls back to
// the default file name in the working directory, which may be absent; an
// explicitly named file must exist.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &fileConfig{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file %s", path)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file %s", path)
	}
	return &cfg, nil
}

// applyRegistry overlays the file's registry section onto a client config.
// Zero-valued file fields leave cfg untouched.
func (fc *fileConfig) applyRegistry(cfg registry.Config) registry.Config {
	r := fc.Registry
	if r.BaseURL != "" {
		cfg.RegistryBaseURL = r.BaseURL
	}
	if r.GalleryURL != "" {
		cfg.GalleryBaseURL = r.GalleryURL
	}
	if len(r.TrustedHosts) > 0 {
		cfg.TrustedHosts = r.TrustedHosts
	}
	if r.MaxConcurrent > 0 {
		cfg.MaxConcurrentRequests = r.MaxConcurrent
	}
	if r.Timeout.Duration > 0 {
		cfg.Timeout = r.Timeout.Duration
	}
	if r.RetryAttempts > 0 {
		cfg.MaxRetryAttempts = r.RetryAttempts
	}
	if r.RetryDelay.Duration > 0 {
		cfg.RetryDelay = r.RetryDelay.Duration
	}
	if r.RetryBackoff > 0 {
		cfg.RetryBackoffFactor = r.RetryBackoff
	}
	if r.RetryMaxDelay.Duration > 0 {
		cfg.MaxRetryDelay = r.RetryMaxDelay.Duration
	}
	if r.RetryJitter != nil {
		cfg.RetryJitter = *r.RetryJitter
	}
	if r.CacheTTL.Duration > 0 {
		cfg.CacheTTL = r.CacheTTL.Duration
	}
	return cfg
}
