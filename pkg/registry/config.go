package registry

import "time"

// Config holds the tunable surface of the metadata client.
// The zero value is not usable; start from [DefaultConfig].
type Config struct {
	// RegistryBaseURL is the registration endpoint queried as
	// {RegistryBaseURL}/{lowercased id}/{version}.json.
	RegistryBaseURL string

	// GalleryBaseURL is used to construct the package gallery URL that is
	// present in every result, even on total fetch failure.
	GalleryBaseURL string

	// TrustedHosts gates catalog indirection URLs found inside registry
	// responses. A host matches itself and its subdomains, HTTPS only.
	TrustedHosts []string

	// MaxConcurrentRequests bounds simultaneous in-flight fetches across
	// all callers sharing one Client.
	MaxConcurrentRequests int

	// Timeout applies per HTTP request.
	Timeout time.Duration

	// Retry schedule for transient failures.
	MaxRetryAttempts   int
	RetryDelay         time.Duration
	RetryBackoffFactor float64
	MaxRetryDelay      time.Duration
	RetryJitter        bool

	// CacheTTL controls how long successful registry responses are kept
	// when the client is given a cache backend.
	CacheTTL time.Duration
}

// DefaultConfig returns the client configuration for nuget.org.
func DefaultConfig() Config {
	return Config{
		RegistryBaseURL:       "https://api.nuget.org/v3/registration5-gz-semver2",
		GalleryBaseURL:        "https://www.nuget.org/packages",
		TrustedHosts:          []string{"nuget.org", "azureedge.net"},
		MaxConcurrentRequests: 8,
		Timeout:               30 * time.Second,
		MaxRetryAttempts:      3,
		RetryDelay:            500 * time.Millisecond,
		RetryBackoffFactor:    2,
		MaxRetryDelay:         10 * time.Second,
		RetryJitter:           true,
		CacheTTL:              24 * time.Hour,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.RegistryBaseURL == "" {
		c.RegistryBaseURL = def.RegistryBaseURL
	}
	if c.GalleryBaseURL == "" {
		c.GalleryBaseURL = def.GalleryBaseURL
	}
	if len(c.TrustedHosts) == 0 {
		c.TrustedHosts = def.TrustedHosts
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = def.MaxConcurrentRequests
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.RetryBackoffFactor <= 0 {
		c.RetryBackoffFactor = def.RetryBackoffFactor
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = def.MaxRetryDelay
	}
	return c
}
