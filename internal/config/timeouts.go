package config

import "time"

// TimeoutConfig holds timeout settings for the server and the MongoDB client.
type TimeoutConfig struct {
	// MongoConnect bounds a single connect + ping attempt. Default: 10s
	MongoConnect time.Duration

	// Request is the per-request deadline applied by the API router. Default: 60s
	Request time.Duration

	// HTTPRead is the server's request body read timeout. Default: 15s
	HTTPRead time.Duration

	// HTTPIdle is the keep-alive idle timeout. Default: 120s
	HTTPIdle time.Duration

	// Shutdown is how long in-flight requests get on graceful shutdown. Default: 30s
	Shutdown time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		MongoConnect: 10 * time.Second,
		Request:      60 * time.Second,
		HTTPRead:     15 * time.Second,
		HTTPIdle:     120 * time.Second,
		Shutdown:     30 * time.Second,
	}
}

// LoadTimeouts reads timeout overrides from the loader, falling back to defaults
func LoadTimeouts(l *Loader) *TimeoutConfig {
	d := DefaultTimeoutConfig()
	return &TimeoutConfig{
		MongoConnect: l.Duration("mongo.connect_timeout", d.MongoConnect),
		Request:      l.Duration("http.request_timeout", d.Request),
		HTTPRead:     l.Duration("http.read_timeout", d.HTTPRead),
		HTTPIdle:     l.Duration("http.idle_timeout", d.HTTPIdle),
		Shutdown:     l.Duration("http.shutdown_timeout", d.Shutdown),
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
