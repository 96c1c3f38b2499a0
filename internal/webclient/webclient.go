// Package webclient abstracts how portfolio pages are retrieved. Two backends
// exist: a plain net/http client and a chromedp client that executes
// JavaScript before snapshotting the DOM.
package webclient

import "context"

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
