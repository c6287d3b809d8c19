package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultPageTimeout     = 15 * time.Second
	navigationPollInterval = 50 * time.Millisecond
)

var chromeExecutables = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// BrowserAvailable returns true if a Chrome or Chromium executable can be found, so tests
// that need a browser can be skipped when it can't.
func BrowserAvailable() bool {
	_, ok := findChrome()
	return ok
}

func findChrome() (string, bool) {
	for _, name := range chromeExecutables {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

type browserDriverConfig struct {
	execPath    string
	pageTimeout time.Duration
}

type BrowserOption func(*browserDriverConfig)

func WithExecPath(path string) BrowserOption {
	return func(c *browserDriverConfig) { c.execPath = path }
}

func WithPageTimeout(timeout time.Duration) BrowserOption {
	return func(c *browserDriverConfig) { c.pageTimeout = timeout }
}

// BrowserDriver loads pages in a headless Chrome instance, one tab per request. The
// browser process lives until Close is called.
type BrowserDriver struct {
	browserCtx  context.Context
	cancel      func()
	pageTimeout time.Duration
	closeOnce   sync.Once
}

// NewBrowserDriver starts the browser. Extensions and GPU acceleration are disabled.
func NewBrowserDriver(opts ...BrowserOption) (*BrowserDriver, error) {
	config := browserDriverConfig{pageTimeout: DefaultPageTimeout}
	for _, o := range opts {
		o(&config)
	}
	if config.execPath == "" {
		path, ok := findChrome()
		if !ok {
			return nil, errors.New("no Chrome or Chromium executable found")
		}
		config.execPath = path
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(config.execPath),
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.Flag("disable-extensions", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("unable to start browser: %w", err)
	}
	return &BrowserDriver{browserCtx: browserCtx, cancel: cancel, pageTimeout: config.pageTimeout}, nil
}

// Do loads the URL of a GET request, or submits a form for a POST request with form data.
// Other kinds of requests can't be expressed through page navigation and are rejected.
func (d *BrowserDriver) Do(ctx context.Context, target Target, spec RequestSpec) (ResponseCapture, error) {
	var actions chromedp.Tasks
	url := spec.URL(target.BaseURL())
	switch {
	case spec.JSON != nil || len(spec.Header) > 0 || spec.Host != "":
		return ResponseCapture{}, errors.New("browser requests can't have JSON bodies or custom headers")
	case spec.method() == http.MethodGet:
		actions = chromedp.Tasks{chromedp.Navigate(url)}
	case spec.method() == http.MethodPost:
		script, err := formSubmitScript(url, spec)
		if err != nil {
			return ResponseCapture{}, err
		}
		var submitted bool
		actions = chromedp.Tasks{
			chromedp.Navigate("about:blank"),
			chromedp.Evaluate(script, &submitted),
			waitForNavigationFrom("about:blank"),
		}
	default:
		return ResponseCapture{}, fmt.Errorf("browser can't send a %s request", spec.method())
	}

	tabCtx, cancelTab := chromedp.NewContext(d.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, d.pageTimeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var document, location string
	actions = append(actions,
		chromedp.WaitReady("html", chromedp.ByQuery),
		chromedp.OuterHTML("html", &document, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err := chromedp.Run(tabCtx, actions); err != nil {
		if ctx.Err() != nil {
			return ResponseCapture{}, ctx.Err()
		}
		return ResponseCapture{}, fmt.Errorf("browser request to %s failed: %w", url, err)
	}
	return ResponseCapture{
		Body:     []byte(document),
		Document: document,
		URL:      location,
	}, nil
}

// formSubmitScript builds a script that creates a form in the current page and submits it.
func formSubmitScript(action string, spec RequestSpec) (string, error) {
	fields := make(map[string][]string, len(spec.Form))
	for k, vv := range spec.Form {
		fields[k] = vv
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	actionJSON, _ := json.Marshal(action)
	return `(() => {
  const form = document.createElement("form");
  form.method = "POST";
  form.action = ` + string(actionJSON) + `;
  const fields = ` + string(fieldsJSON) + `;
  for (const [name, values] of Object.entries(fields)) {
    for (const value of values) {
      const input = document.createElement("input");
      input.type = "hidden";
      input.name = name;
      input.value = value;
      form.appendChild(input);
    }
  }
  document.body.appendChild(form);
  form.submit();
  return true;
})()`, nil
}

// waitForNavigationFrom polls until the tab has left the given URL and finished loading the
// new document. Evaluation errors while the old document is torn down are expected.
func waitForNavigationFrom(oldURL string) chromedp.Action {
	oldURLJSON, _ := json.Marshal(oldURL)
	expr := `location.href !== ` + string(oldURLJSON) + ` && document.readyState === "complete"`
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for {
			var done bool
			if err := chromedp.Evaluate(expr, &done).Do(ctx); err == nil && done {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(navigationPollInterval):
			}
		}
	})
}

// Close shuts down the browser. It is safe to call more than once.
func (d *BrowserDriver) Close() error {
	d.closeOnce.Do(d.cancel)
	return nil
}
