package demosite

// Config holds configuration for the demo portfolio server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Port: 9999}
}
