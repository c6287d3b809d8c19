package driver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPDriver(t *testing.T, opts ...HTTPOption) *HTTPDriver {
	d, err := NewHTTPDriver(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestHTTPDriverCapturesResponse(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(201, http.Header{"Content-Type": {"text/plain"}}, []byte("hi"))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		resp, err := newHTTPDriver(t).Do(context.Background(), URLTarget(server.URL), Get("/"))
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.Mimetype())
		assert.Equal(t, "hi", resp.Text())
		assert.Equal(t, server.URL+"/", resp.URL)
	})
}

func TestHTTPDriverSendsRequest(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		spec := Post("/login").WithJSON(map[string]string{"username": "user1"}).WithHeader("X-Test", "yes")
		_, err := newHTTPDriver(t).Do(context.Background(), URLTarget(server.URL), spec)
		require.NoError(t, err)

		r := <-requestsCh
		assert.Equal(t, "POST", r.Request.Method)
		assert.Equal(t, "/login", r.Request.URL.Path)
		assert.Equal(t, "yes", r.Request.Header.Get("X-Test"))
		assert.JSONEq(t, `{"username":"user1"}`, string(r.Body))
	})
}

func redirectHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/old_route", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new_route", http.StatusFound)
	})
	mux.Handle("/new_route", httphelpers.HandlerWithResponse(200, nil, []byte("New route")))
	return mux
}

func TestHTTPDriverFollowsRedirectsByDefault(t *testing.T) {
	httphelpers.WithServer(redirectHandler(), func(server *httptest.Server) {
		resp, err := newHTTPDriver(t).Do(context.Background(), URLTarget(server.URL), Get("/old_route"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "New route", resp.Text())
		assert.Equal(t, server.URL+"/new_route", resp.URL)
	})
}

func TestHTTPDriverWithoutRedirects(t *testing.T) {
	httphelpers.WithServer(redirectHandler(), func(server *httptest.Server) {
		resp, err := newHTTPDriver(t, NoRedirects()).Do(context.Background(), URLTarget(server.URL), Get("/old_route"))
		require.NoError(t, err)
		assert.Equal(t, 302, resp.StatusCode)
		assert.Equal(t, "/new_route", resp.Header.Get("Location"))
	})
}

func TestHTTPDriverKeepsCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "n", Value: "42", Path: "/"})
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("n"); err == nil {
			_, _ = w.Write([]byte(c.Value))
		}
	})
	httphelpers.WithServer(mux, func(server *httptest.Server) {
		target := URLTarget(server.URL)

		d := newHTTPDriver(t)
		_, err := d.Do(context.Background(), target, Get("/set"))
		require.NoError(t, err)
		resp, err := d.Do(context.Background(), target, Get("/get"))
		require.NoError(t, err)
		assert.Equal(t, "42", resp.Text())

		noJar := newHTTPDriver(t, WithoutCookieJar())
		_, err = noJar.Do(context.Background(), target, Get("/set"))
		require.NoError(t, err)
		resp, err = noJar.Do(context.Background(), target, Get("/get"))
		require.NoError(t, err)
		assert.Equal(t, "", resp.Text())
	})
}

func TestHTTPDriverReportsTransportError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	_, err := newHTTPDriver(t).Do(context.Background(), URLTarget(url), Get("/"))
	assert.Error(t, err)
}
