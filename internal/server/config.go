package server

import "github.com/raysh454/foliograde/internal/logging"

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// AllowedOrigins is the CORS allowlist. Empty allows any origin.
	AllowedOrigins []string

	Logger logging.Logger
}
