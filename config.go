package gatehouse

import "time"

// DefaultCacheTTL is the verdict and permission-set cache lifetime used
// when Config.CacheTTL is zero.
const DefaultCacheTTL = time.Hour

// Config holds configuration for the Resolver.
type Config struct {
	// CacheTTL is the time-to-live for cached verdicts and permission
	// sets. Zero means DefaultCacheTTL.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// LogDecisions enables best-effort persistence of every resolution
	// to the decision log store. Defaults to false.
	LogDecisions bool `json:"log_decisions,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL: DefaultCacheTTL,
	}
}

func (c Config) cacheTTL() time.Duration {
	if c.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return c.CacheTTL
}
