package driver

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithMethodsDoNotModifyOriginal(t *testing.T) {
	base := Get("/").WithQuery("a", "1").WithHeader("X-One", "1")
	derived := base.WithQuery("b", "2").WithHeader("X-Two", "2").WithHost("example.com")

	assert.Equal(t, "a=1", base.Query.Encode())
	assert.Equal(t, "a=1&b=2", derived.Query.Encode())
	assert.Empty(t, base.Header.Get("X-Two"))
	assert.Equal(t, "2", derived.Header.Get("X-Two"))
	assert.Empty(t, base.Host)
}

func TestFormAndJSONAreExclusive(t *testing.T) {
	r := Post("/").WithFormValue("arg1", "value1").WithJSON(map[string]string{"a": "b"})
	assert.Nil(t, r.Form)
	assert.NotNil(t, r.JSON)

	r = r.WithFormValue("arg1", "value1")
	assert.Nil(t, r.JSON)
	assert.Equal(t, "value1", r.Form.Get("arg1"))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "http://host:1/", Get("/").URL("http://host:1"))
	assert.Equal(t, "http://host:1/path", Get("path").URL("http://host:1/"))
	assert.Equal(t, "http://host:1/?name=Alice+B", Get("/").WithQuery("name", "Alice B").URL("http://host:1"))
	assert.Equal(t, "http://host:1/x?a=1&b=2", Get("/x?a=1").WithQuery("b", "2").URL("http://host:1"))
}

func TestNewHTTPRequestWithForm(t *testing.T) {
	req, err := Post("/").WithFormValue("arg1", "value1").WithFormValue("arg2", "value2").
		NewHTTPRequest(context.Background(), "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	body, _ := io.ReadAll(req.Body)
	assert.Equal(t, "arg1=value1&arg2=value2", string(body))
}

func TestNewHTTPRequestWithJSON(t *testing.T) {
	req, err := Post("/login").WithJSON(map[string]string{"username": "user1"}).
		NewHTTPRequest(context.Background(), "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	body, _ := io.ReadAll(req.Body)
	assert.JSONEq(t, `{"username":"user1"}`, string(body))
}

func TestNewHTTPRequestWithHeadersHostAndCookies(t *testing.T) {
	req, err := Get("/protected").WithBearerToken("abc").WithHost("example.com").
		WithCookies(&http.Cookie{Name: "session", Value: "xyz", Domain: "example.com"}).
		NewHTTPRequest(context.Background(), "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	assert.Equal(t, "example.com", req.Host)
	assert.Equal(t, "session=xyz", req.Header.Get("Cookie"))
	assert.Nil(t, req.Body)
}

func TestEmptyMethodMeansGet(t *testing.T) {
	req, err := RequestSpec{Path: "/"}.NewHTTPRequest(context.Background(), "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
}
