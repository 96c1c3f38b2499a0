package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/foliograde/internal/testutil"
)

const fullPage = "<html><body>" +
	"<h1>Jane Doe</h1><p>Frontend developer building accessible web apps.</p>" +
	"</body></html>"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func TestValidateTarget(t *testing.T) {
	valid := []string{
		"https://example.com/portfolio",
		"http://my-site.dev",
	}
	for _, u := range valid {
		if err := ValidateTarget(u); err != nil {
			t.Errorf("ValidateTarget(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com",
		"file:///etc/passwd",
		"https://localhost:3000",
		"https://dev.localhost",
		"http://127.0.0.1/x",
		"http://10.0.0.5",
		"http://192.168.1.10",
		"http://169.254.1.1",
		"http://0.0.0.0",
		"http://[::1]/x",
		"not a url at all://",
	}
	for _, u := range invalid {
		err := ValidateTarget(u)
		if err == nil {
			t.Errorf("ValidateTarget(%q) = nil, want error", u)
			continue
		}
		if !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("ValidateTarget(%q) error %v is not ErrInvalidTarget", u, err)
		}
	}
}

func TestFetch_RenderPreferred(t *testing.T) {
	url := "https://example.com"
	renderer := &testutil.DummyWebClient{Bodies: map[string]string{url: fullPage}}
	plain := &testutil.DummyWebClient{}

	f, err := New(renderer, plain, testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.UsedFallback {
		t.Error("UsedFallback = true, want false")
	}
	if res.HTML != fullPage {
		t.Errorf("HTML = %q", res.HTML)
	}
	if plain.RequestCount(url) != 0 {
		t.Error("plain backend should not be consulted when render succeeds")
	}
}

func TestFetch_FallbackOnRenderFailure(t *testing.T) {
	url := "https://example.com"
	renderer := &testutil.DummyWebClient{FailURLs: map[string]bool{url: true}}
	big := strings.Repeat("<p>real static content</p>", 200)
	plain := &testutil.DummyWebClient{Bodies: map[string]string{url: "<html><body>" + big + "</body></html>"}}

	f, _ := New(renderer, plain, testConfig(), nil)

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.UsedFallback {
		t.Error("UsedFallback = false, want true")
	}
	if res.LowConfidenceWarning {
		t.Error("large static fallback body should not be low confidence")
	}
	// render tried twice (retry), then fallback
	if got := renderer.RequestCount(url); got != 2 {
		t.Errorf("renderer attempts = %d, want 2", got)
	}
}

func TestFetch_RetryRecovers(t *testing.T) {
	url := "https://example.com"
	renderer := &testutil.DummyWebClient{
		Bodies:    map[string]string{url: fullPage},
		FailFirst: map[string]int{url: 1},
	}
	plain := &testutil.DummyWebClient{}

	f, _ := New(renderer, plain, testConfig(), nil)

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.UsedFallback {
		t.Error("retry success should not count as fallback")
	}
	if got := renderer.RequestCount(url); got != 2 {
		t.Errorf("renderer attempts = %d, want 2", got)
	}
}

func TestFetch_LowConfidenceOnSkeleton(t *testing.T) {
	url := "https://example.com"
	skeleton := `<html><head><script src="/static/js/main.abc.js"></script></head>` +
		`<body><div id="root"></div></body></html>`
	renderer := &testutil.DummyWebClient{FailURLs: map[string]bool{url: true}}
	plain := &testutil.DummyWebClient{Bodies: map[string]string{url: skeleton}}

	f, _ := New(renderer, plain, testConfig(), nil)

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.LowConfidenceWarning {
		t.Error("JS skeleton fallback should set LowConfidenceWarning")
	}
}

func TestFetch_BothBackendsFail(t *testing.T) {
	url := "https://example.com"
	renderer := &testutil.DummyWebClient{FailURLs: map[string]bool{url: true}}
	plain := &testutil.DummyWebClient{FailURLs: map[string]bool{url: true}}

	f, _ := New(renderer, plain, testConfig(), nil)

	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Fatal("expected error when both backends fail")
	}
}

func TestFetch_NoRenderer(t *testing.T) {
	url := "https://example.com"
	plain := &testutil.DummyWebClient{Bodies: map[string]string{url: fullPage}}

	f, _ := New(nil, plain, testConfig(), nil)

	res, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Plain-only setup is not a degraded path
	if res.UsedFallback {
		t.Error("UsedFallback = true without a renderer configured")
	}
}

func TestIsJSSkeleton(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"react shell", `<html><body><div id="root"></div><script src="/static/js/bundle.js"></script></body></html>`, true},
		{"static page", fullPage, false},
		{"long page with marker", `<div id="app">` + strings.Repeat("x", 6000), false},
	}
	for _, tt := range tests {
		if got := isJSSkeleton(tt.html); got != tt.want {
			t.Errorf("%s: isJSSkeleton = %v, want %v", tt.name, got, tt.want)
		}
	}
}
