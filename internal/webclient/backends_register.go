package webclient

import (
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/raysh454/foliograde/internal/logging"
)

// RegisterDefaultBackends registers the default nethttp and chromedp backends.
// Call this from init() or early in main() to make backends available to NewWebClient.
func RegisterDefaultBackends() {
	RegisterBackend("nethttp", func(opts Options, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(opts.Timeout, logger, nil)
	})

	RegisterBackend("chromedp", func(opts Options, logger logging.Logger) (WebClient, error) {
		var allocOpts []chromedp.ExecAllocatorOption
		if opts.ShowBrowser {
			allocOpts = append(allocOpts, chromedp.Flag("headless", false))
		}

		client, err := NewChromeDPClient(opts.IdleAfter, logger, allocOpts...)
		if err != nil {
			return nil, fmt.Errorf("create chromedp client: %w", err)
		}
		return client, nil
	})
}
