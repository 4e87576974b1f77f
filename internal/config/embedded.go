package config

// EmbeddedTMDBKey is injected at build time via ldflags and serves as the
// default TMDB API key. The environment or config file overrides it.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/slipstream/netcollections/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string

// Version is set at build time via ldflags.
var Version = "dev"
