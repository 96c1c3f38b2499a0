// Package demosite serves sample portfolio pages of varying quality so the
// grading pipeline can be demonstrated without real student sites.
package demosite

import (
	"fmt"
	"net/http"
	"sync"
)

// PageDefinition is one sample portfolio page.
type PageDefinition struct {
	Path        string
	Name        string
	Description string
	HTML        string
}

// DemoSite is a simple HTTP server hosting the sample portfolios.
type DemoSite struct {
	cfg   Config
	pages map[string]PageDefinition
	mu    sync.RWMutex
}

// NewDemoSite creates a new demo site instance.
func NewDemoSite(cfg Config) *DemoSite {
	pageMap := make(map[string]PageDefinition)
	for _, p := range SamplePages() {
		pageMap[p.Path] = p
	}
	return &DemoSite{cfg: cfg, pages: pageMap}
}

// Start starts the demo site.
func (s *DemoSite) Start() error {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path // capture for closure
		mux.HandleFunc(p, s.pageHandler(p))
	}
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/static/", s.staticHandler)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo portfolios at http://localhost%s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *DemoSite) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		page, ok := s.pages[path]
		s.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page.HTML))
	}
}

// indexHandler lists the available sample portfolios.
func (s *DemoSite) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><head><title>Sample Portfolios</title></head><body><h1>Sample Portfolios</h1><ul>")
	for _, p := range SamplePages() {
		fmt.Fprintf(w, `<li><a href="%s">%s</a> - %s</li>`, p.Path, p.Name, p.Description)
	}
	fmt.Fprint(w, "</ul></body></html>")
}

// staticHandler serves placeholder static files referenced by the SPA shell.
func (s *DemoSite) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write([]byte(`// Demo static file: ` + r.URL.Path + "\n"))
}
