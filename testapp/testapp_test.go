package testapp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, factory appFactory, settings map[string]any) *App {
	config := appconfig.New()
	for k, v := range settings {
		config.Set(k, v)
	}
	app, err := factory(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func call(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestEveryRoutineIsRegistered(t *testing.T) {
	names := Routines().Names()
	assert.Equal(t, []string{"auth", "form", "hello", "jsonify", "methods", "query", "redirect", "session",
		"template", "users", "views"}, names)
}

func TestEveryAppHasLivenessRoute(t *testing.T) {
	for name, factory := range factories {
		app := newTestApp(t, factory, nil)
		w := call(app, httptest.NewRequest("GET", "/is_alive", nil))
		assert.Equal(t, 200, w.Code, name)
	}
}

func TestHello(t *testing.T) {
	w := call(newTestApp(t, NewHelloApp, nil), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "Hello World!", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestURLFor(t *testing.T) {
	app := newTestApp(t, NewHelloApp, nil)
	u, err := app.URLFor("index", "")
	require.NoError(t, err)
	assert.Equal(t, "/", u.String())

	u.Scheme, u.Host, u.Fragment = "http", "localhost", "x y"
	assert.Equal(t, "http://localhost/#x%20y", u.String())

	_, err = app.URLFor("index2", "")
	assert.ErrorIs(t, err, ErrBuild)
}

func TestURLForChoosesViewRouteByMethodAndVariables(t *testing.T) {
	app := newTestApp(t, NewViewsApp, nil)
	for _, c := range []struct {
		method   string
		pairs    []string
		expected string
	}{
		{"GET", nil, "/myview/"},
		{"GET", []string{"id", "42"}, "/myview/42"},
		{"POST", nil, "/myview/create"},
	} {
		u, err := app.URLFor("myview", c.method, c.pairs...)
		require.NoError(t, err, "%s %v", c.method, c.pairs)
		assert.Equal(t, c.expected, u.String())
	}

	for _, method := range []string{"DELETE", "PUT", "PATCH"} {
		_, err := app.URLFor("myview", method)
		assert.ErrorIs(t, err, ErrBuild, method)
	}
	_, err := app.URLFor("myview", "GET", "id", "abc")
	assert.ErrorIs(t, err, ErrBuild)
	_, err = app.URLFor("myview", "GET", "id")
	assert.ErrorIs(t, err, ErrBuild)
}

func TestViewDispatch(t *testing.T) {
	app := newTestApp(t, NewViewsApp, nil)
	for _, c := range []struct {
		method, path string
		status       int
		body         string
	}{
		{"GET", "/myview/", 200, "List"},
		{"GET", "/myview/42", 200, "Get 42"},
		{"POST", "/myview/create", 200, "Create"},
		{"GET", "/myview/create", 405, ""},
		{"DELETE", "/myview/42", 405, ""},
	} {
		w := call(app, httptest.NewRequest(c.method, c.path, nil))
		assert.Equal(t, c.status, w.Code, "%s %s", c.method, c.path)
		if c.body != "" {
			assert.Equal(t, c.body, w.Body.String())
		}
	}
}

func TestURLForRoute(t *testing.T) {
	app := newTestApp(t, NewViewsApp, nil)
	w := call(app, httptest.NewRequest("GET", "/url_for?endpoint=myview&method=GET&id=42", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "/myview/42", w.Body.String())

	w = call(app, httptest.NewRequest("GET", "/url_for?endpoint=myview&method=PUT", nil))
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "cannot build URL")
}

func TestRenderTemplateString(t *testing.T) {
	app := newTestApp(t, NewTemplateApp, nil)
	for kind, expected := range map[string]string{
		"int":    "42",
		"string": "42",
		"list":   "[0, 1]",
		"dict":   "{1: 2}",
	} {
		w := call(app, httptest.NewRequest("GET", "/render/"+kind, nil))
		assert.Equal(t, 200, w.Code, kind)
		assert.Equal(t, expected, w.Body.String(), kind)
	}
	w := call(app, httptest.NewRequest("GET", "/render/other", nil))
	assert.Equal(t, 404, w.Code)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET_KEY: from-file\nMETHODS: [POST]\nSERVER_NAME: file.example\n"), 0o600))
	t.Setenv("WEBAPP_CONFIG_FILE", path)
	t.Setenv("WEBAPP_SERVER_NAME", "env.example")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", config.String("JWT_SECRET_KEY", ""))
	assert.Equal(t, "env.example", config.String("SERVER_NAME", ""))
	methods, ok := config.StringList("METHODS")
	assert.True(t, ok)
	assert.Equal(t, []string{"POST"}, methods)
	assert.False(t, config.Debug())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WEBAPP_CONFIG_FILE", "")
	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultJWTSecret, config.String("JWT_SECRET_KEY", ""))
}

func TestLoadConfigWithBadFile(t *testing.T) {
	t.Setenv("WEBAPP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestForm(t *testing.T) {
	app := newTestApp(t, NewFormApp, nil)
	body := url.Values{"arg1": {"value1"}, "arg2": {"value2"}}.Encode()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := call(app, req)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "{'arg1': 'value1', 'arg2': 'value2'}", w.Body.String())

	req = httptest.NewRequest("POST", "/", strings.NewReader("arg1=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, 400, call(app, req).Code)

	assert.Equal(t, 405, call(app, httptest.NewRequest("GET", "/", nil)).Code)
}

func TestQuery(t *testing.T) {
	w := call(newTestApp(t, NewQueryApp, nil), httptest.NewRequest("GET", "/?name=name", nil))
	assert.Equal(t, "name", w.Body.String())
}

func TestRedirect(t *testing.T) {
	app := newTestApp(t, NewRedirectApp, nil)
	w := call(app, httptest.NewRequest("GET", "/old_route", nil))
	assert.Equal(t, 302, w.Code)
	assert.Equal(t, "/new_route", w.Header().Get("Location"))

	w = call(app, httptest.NewRequest("GET", "/new_route", nil))
	assert.Equal(t, "New route", w.Body.String())
}

func TestTemplate(t *testing.T) {
	app := newTestApp(t, NewTemplateApp, nil)
	w := call(app, httptest.NewRequest("GET", "/?name=Alice", nil))
	assert.Equal(t, "<h1>Hello, Alice!</h1>", strings.TrimSpace(w.Body.String()))

	w = call(app, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "<h1>Hello, World!</h1>", strings.TrimSpace(w.Body.String()))

	w = call(app, httptest.NewRequest("GET", "/?name=%3Cb%3E", nil))
	assert.Equal(t, "<h1>Hello, &lt;b&gt;!</h1>", strings.TrimSpace(w.Body.String()))
}

func TestJSONify(t *testing.T) {
	app := newTestApp(t, NewJSONifyApp, nil)
	for _, p := range []struct{ input, expected string }{
		{"0", "0\n"},
		{"-1", "-1\n"},
		{"3.14", "3.14\n"},
		{`"longer string"`, "\"longer string\"\n"},
		{"true", "true\n"},
		{"null", "null\n"},
		{`{"h": ["blabla", 102, true]}`, `{"h":["blabla",102,true]}` + "\n"},
	} {
		input, expected := p.input, p.expected
		w := call(app, httptest.NewRequest("GET", "/jsonify?value="+url.QueryEscape(input), nil))
		assert.Equal(t, 200, w.Code, input)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, expected, w.Body.String(), input)
	}

	w := call(app, httptest.NewRequest("GET", "/jsonify?value=%7B", nil))
	assert.Equal(t, 400, w.Code)
}

func TestMethods(t *testing.T) {
	all := []string{"GET", "POST", "DELETE", "PATCH", "PUT"}
	for _, allowed := range [][]any{{}, {"GET"}, {"GET", "POST", "DELETE", "PATCH", "PUT"}} {
		app := newTestApp(t, NewMethodsApp, map[string]any{"METHODS": allowed})
		for _, method := range all {
			expected := 405
			for _, a := range allowed {
				if a == method {
					expected = 200
				}
			}
			w := call(app, httptest.NewRequest(method, "/", nil))
			assert.Equal(t, expected, w.Code, "%s with allowed methods %v", method, allowed)
		}
	}
}

func TestMethodsRejectsInvalidSetting(t *testing.T) {
	config := appconfig.New()
	config.Set("METHODS", "GET")
	_, err := NewMethodsApp(config)
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	app := newTestApp(t, NewUsersApp, nil)
	assert.Equal(t, "[]\n", call(app, httptest.NewRequest("GET", "/read_all", nil)).Body.String())

	w := call(app, httptest.NewRequest("GET", "/create_user?name=name", nil))
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"name"}`, w.Body.String())
	call(app, httptest.NewRequest("GET", "/create_user?name=name1", nil))

	for i := 0; i < 2; i++ {
		w = call(app, httptest.NewRequest("GET", "/read_all", nil))
		assert.Equal(t, `["name","name1"]`+"\n", w.Body.String())
	}

	w = call(app, httptest.NewRequest("GET", "/read_user?name=name1", nil))
	assert.JSONEq(t, `{"id":2,"name":"name1"}`, w.Body.String())

	w = call(app, httptest.NewRequest("GET", "/read_user?name=nobody", nil))
	assert.Equal(t, 404, w.Code)

	assert.Equal(t, 400, call(app, httptest.NewRequest("GET", "/create_user", nil)).Code)
}

func TestUsersAppsDoNotShareData(t *testing.T) {
	app1 := newTestApp(t, NewUsersApp, nil)
	app2 := newTestApp(t, NewUsersApp, nil)
	call(app1, httptest.NewRequest("GET", "/create_user?name=name", nil))
	assert.Equal(t, "[]\n", call(app2, httptest.NewRequest("GET", "/read_all", nil)).Body.String())
}

func login(t *testing.T, app http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return call(app, req)
}

func TestAuth(t *testing.T) {
	app := newTestApp(t, NewAuthApp, nil)

	w := login(t, app, `{"username": "user1"`)
	assert.Equal(t, 400, w.Code)
	assert.JSONEq(t, `{"msg":"Invalid JSON body"}`, w.Body.String())

	w = login(t, app, `{}`)
	assert.Equal(t, 400, w.Code)
	assert.JSONEq(t, `{"msg":"Username and password are required"}`, w.Body.String())

	w = login(t, app, `{"username":"user12345","password":"password11234"}`)
	assert.Equal(t, 401, w.Code)
	assert.JSONEq(t, `{"msg":"Invalid credentials"}`, w.Body.String())

	w = login(t, app, `{"username":"user1","password":"password1"}`)
	require.Equal(t, 200, w.Code)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.NotEmpty(t, token.AccessToken)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	w = call(app, req)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"msg":"Hello, user1!"}`, w.Body.String())
}

func TestProtectedRouteRejectsBadTokens(t *testing.T) {
	app := newTestApp(t, NewAuthApp, map[string]any{"JWT_SECRET_KEY": "one-secret"})
	other := newTestApp(t, NewAuthApp, map[string]any{"JWT_SECRET_KEY": "another-secret"})

	w := call(app, httptest.NewRequest("GET", "/protected", nil))
	assert.Equal(t, 401, w.Code)
	assert.JSONEq(t, `{"msg":"Missing Authorization Header"}`, w.Body.String())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, 422, call(app, req).Code)

	w = login(t, other, `{"username":"user2","password":"password2"}`)
	var token map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token["access_token"])
	w = call(app, req)
	assert.Equal(t, 422, w.Code)
	assert.JSONEq(t, `{"msg":"Signature verification failed"}`, w.Body.String())
}

func TestExpiredToken(t *testing.T) {
	a := &authenticator{secret: []byte("s"), now: func() time.Time { return time.Now().Add(-time.Hour) }}
	token, err := a.issue("user1")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestSession(t *testing.T) {
	app := newTestApp(t, NewSessionApp, map[string]any{"SERVER_NAME": "example.com"})

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	w := call(app, req)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "Hello World", w.Body.String())
	setCookie := strings.ToLower(w.Header().Get("Set-Cookie"))
	assert.Contains(t, setCookie, "domain=example.com")
	assert.Contains(t, setCookie, "httponly")

	req = httptest.NewRequest("GET", "http://example.com/session", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = call(app, req)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = call(app, httptest.NewRequest("GET", "http://other.com/", nil))
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, 400, call(app, httptest.NewRequest("GET", "http://example.com/session", nil)).Code)
}

func TestServeReportsPortInUse(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	app := newTestApp(t, NewHelloApp, nil)
	err := app.Serve(context.Background(), server.Listener.Addr().(*net.TCPAddr).Port)
	require.Error(t, err)
	assert.Equal(t, harness.ExitCodePortInUse, harness.ExitCodeFor(err))
}

func TestServeStopsWhenContextIsCancelled(t *testing.T) {
	lease, err := harness.AllocatePort(harness.DefaultConfig().Ports)
	require.NoError(t, err)
	app := newTestApp(t, NewHelloApp, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, lease.Port) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(lease.Port) + "/is_alive")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == 200
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
