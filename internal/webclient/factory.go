package webclient

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/foliograde/internal/logging"
)

// Options carries backend-agnostic construction parameters. Backends read
// the fields they care about and ignore the rest.
type Options struct {
	// Timeout bounds a single request for the nethttp backend.
	Timeout time.Duration
	// IdleAfter is the network-quiet window for the chromedp backend.
	IdleAfter time.Duration
	// ShowBrowser disables headless mode for local debugging.
	ShowBrowser bool
}

// BackendConstructor constructs a WebClient given options and a logger.
type BackendConstructor func(opts Options, logger logging.Logger) (WebClient, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewWebClient constructs the named WebClient backend. It returns an error
// if the named backend has not been registered.
func NewWebClient(backend string, opts Options, logger logging.Logger) (WebClient, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = "nethttp"
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("webclient backend %q not registered: available backends=%v", backend, ListBackends())
	}

	wc, err := ctor(opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct webclient backend %q: %w", backend, err)
	}
	if wc == nil {
		return nil, errors.New("webclient constructor returned nil")
	}
	return wc, nil
}

// ListBackends returns the list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
