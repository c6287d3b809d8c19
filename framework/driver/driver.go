// Package driver issues requests against a running server and captures the responses.
//
// There are two implementations of Driver. HTTPDriver makes raw HTTP requests and captures
// everything about the response; use it whenever a test cares about status codes, headers,
// or exact bytes. BrowserDriver loads pages in headless Chrome and captures the rendered
// document, which is what a user would see but loses the HTTP details.
package driver

import (
	"context"
	"strings"
)

// Target is anything that has a base URL, such as a *harness.ServerHandle.
type Target interface {
	BaseURL() string
}

// URLTarget is a Target with a fixed base URL, for instance that of an httptest.Server.
type URLTarget string

func (u URLTarget) BaseURL() string {
	return strings.TrimSuffix(string(u), "/")
}

// Driver performs one request/response cycle at a time. Implementations must be closed
// when they are no longer needed.
type Driver interface {
	Do(ctx context.Context, target Target, req RequestSpec) (ResponseCapture, error)
	Close() error
}
