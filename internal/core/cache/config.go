package cache

import "time"

const (
	// DefaultMaxRequestsPerWindow bounds upstream fetch attempts per window.
	DefaultMaxRequestsPerWindow = 5
	// DefaultWindowDuration is the rolling quota window.
	DefaultWindowDuration = time.Hour
	// DefaultEntryTTL is how long a stored value stays live.
	DefaultEntryTTL = 12 * time.Minute
)

// Config holds the fixed-at-construction cache settings.
//
// Zero values take the defaults. A negative MaxRequestsPerWindow disables the
// quota ceiling and a negative EntryTTL disables caching; together they give the
// pass-through behaviour of a storefront that fetches on every load.
type Config struct {
	MaxRequestsPerWindow int
	WindowDuration       time.Duration
	EntryTTL             time.Duration
}

// PassThrough returns a config that never serves cached values and never
// refuses a fetch.
func PassThrough() Config {
	return Config{MaxRequestsPerWindow: -1, EntryTTL: -1}
}

func configWithDefaults(cfg Config) Config {
	if cfg.MaxRequestsPerWindow == 0 {
		cfg.MaxRequestsPerWindow = DefaultMaxRequestsPerWindow
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = DefaultWindowDuration
	}
	if cfg.EntryTTL == 0 {
		cfg.EntryTTL = DefaultEntryTTL
	}
	return cfg
}

func (c Config) unlimited() bool {
	return c.MaxRequestsPerWindow < 0
}
