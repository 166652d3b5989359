// Package secrets defines the secret-source boundary consumed by bootstrap
// code and a first-match composite over an ordered set of sources.
package secrets

import "os"

// Source answers point lookups for secret values.
type Source interface {
	// TryGetSecret returns the value for key and whether it was found.
	TryGetSecret(key string) (string, bool)
}

// Static is a fixed in-memory source, mainly for tests and defaults.
type Static map[string]string

func (s Static) TryGetSecret(key string) (string, bool) {
	value, ok := s[key]
	return value, ok
}

// Env resolves secrets from process environment variables with an optional
// name prefix. Keys are used verbatim after prefixing; no case mapping is
// performed.
type Env struct {
	Prefix string
}

func (e Env) TryGetSecret(key string) (string, bool) {
	return os.LookupEnv(e.Prefix + key)
}

// Composite scans sources in order and returns the first match. Not-found is
// reported only when every source misses. No caching, no precedence beyond
// source order.
type Composite struct {
	sources []Source
}

// NewComposite creates a Composite over the given sources in scan order.
func NewComposite(sources ...Source) *Composite {
	return &Composite{sources: sources}
}

func (c *Composite) TryGetSecret(key string) (string, bool) {
	for _, source := range c.sources {
		if value, ok := source.TryGetSecret(key); ok {
			return value, true
		}
	}
	return "", false
}
