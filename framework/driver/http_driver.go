package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

const DefaultRequestTimeout = 10 * time.Second

type httpDriverConfig struct {
	followRedirects bool
	useJar          bool
	timeout         time.Duration
}

type HTTPOption func(*httpDriverConfig)

// NoRedirects makes the driver return redirect responses as they are instead of following
// them.
func NoRedirects() HTTPOption {
	return func(c *httpDriverConfig) { c.followRedirects = false }
}

// WithoutCookieJar makes the driver forget cookies between requests; only the cookies in
// each RequestSpec are sent.
func WithoutCookieJar() HTTPOption {
	return func(c *httpDriverConfig) { c.useJar = false }
}

func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(c *httpDriverConfig) { c.timeout = timeout }
}

// HTTPDriver makes direct HTTP requests. By default it follows redirects and keeps cookies
// between requests, like a browser would.
type HTTPDriver struct {
	client *http.Client
}

func NewHTTPDriver(opts ...HTTPOption) (*HTTPDriver, error) {
	config := httpDriverConfig{followRedirects: true, useJar: true, timeout: DefaultRequestTimeout}
	for _, o := range opts {
		o(&config)
	}
	client := &http.Client{
		Transport: &http.Transport{},
		Timeout:   config.timeout,
	}
	if config.useJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}
	if !config.followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &HTTPDriver{client: client}, nil
}

func (d *HTTPDriver) Do(ctx context.Context, target Target, spec RequestSpec) (ResponseCapture, error) {
	req, err := spec.NewHTTPRequest(ctx, target.BaseURL())
	if err != nil {
		return ResponseCapture{}, fmt.Errorf("invalid request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return ResponseCapture{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseCapture{}, fmt.Errorf("error reading response body: %w", err)
	}
	return ResponseCapture{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        resp.Request.URL.String(),
	}, nil
}

// Close releases idle connections, so that no connection outlives the server it pointed to.
func (d *HTTPDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
