package testapp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 2 * time.Second

// App is one application instance.
type App struct {
	Name   string
	Router *mux.Router
	Config *appconfig.Config
	Logger *log.Logger

	endpoints map[string][]*mux.Route
	closers   []func() error
}

// ErrBuild is returned by URLFor when no route fits the endpoint, method and variables.
var ErrBuild = errors.New("cannot build URL")

// NewApp creates an application with the liveness route already registered.
func NewApp(name string, config *appconfig.Config) *App {
	if config == nil {
		config = appconfig.New()
	}
	app := &App{
		Name:   name,
		Router: mux.NewRouter(),
		Config: config,
		Logger: log.New(os.Stderr, "["+name+"] ", log.LstdFlags),

		endpoints: make(map[string][]*mux.Route),
	}
	app.Router.HandleFunc(servicedef.LivenessPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Hello"))
	}).Methods(http.MethodGet).Name("is_alive")
	return app
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.Config.Debug() {
		a.Logger.Printf("%s %s (host %s)", r.Method, r.URL, r.Host)
	}
	a.Router.ServeHTTP(w, r)
}

// Close releases anything the app holds, such as a database.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Endpoint registers one route of a view. Several routes can share an endpoint, typically
// with different methods; URLFor chooses among them.
func (a *App) Endpoint(endpoint, path string, handler http.Handler, methods ...string) *mux.Route {
	route := a.Router.Handle(path, handler)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
	a.endpoints[endpoint] = append(a.endpoints[endpoint], route)
	return route
}

// URLFor builds the path of an endpoint or named route. If method is not empty, only routes
// that accept it are considered. Pairs are route variable names and values, and a route is
// chosen only if its variables are exactly those names.
func (a *App) URLFor(name, method string, pairs ...string) (*url.URL, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w for %q: odd number of variable pairs", ErrBuild, name)
	}
	candidates := a.endpoints[name]
	if route := a.Router.Get(name); route != nil {
		candidates = append([]*mux.Route{route}, candidates...)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no endpoint named %q", ErrBuild, name)
	}
	for _, route := range candidates {
		if !routeAccepts(route, method) || !routeHasVars(route, pairs) {
			continue
		}
		if u, err := route.URL(pairs...); err == nil {
			return u, nil
		}
	}
	if method == "" {
		return nil, fmt.Errorf("%w for %q with variables %v", ErrBuild, name, pairs)
	}
	return nil, fmt.Errorf("%w for %q with method %s and variables %v", ErrBuild, name, method, pairs)
}

func routeAccepts(route *mux.Route, method string) bool {
	if method == "" {
		return true
	}
	methods, err := route.GetMethods()
	if err != nil {
		return true // no method matcher
	}
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func routeHasVars(route *mux.Route, pairs []string) bool {
	names, err := route.GetVarNames()
	if err != nil || len(names)*2 != len(pairs) {
		return false
	}
	keys := make([]string, 0, len(names))
	for i := 0; i < len(pairs); i += 2 {
		keys = append(keys, pairs[i])
	}
	for _, name := range names {
		if !slices.Contains(keys, name) {
			return false
		}
	}
	return true
}

// Serve listens on 127.0.0.1:port and serves the app until ctx is cancelled. The listener is
// opened before anything else so that a port collision is reported immediately; the error
// then wraps syscall.EADDRINUSE.
func (a *App) Serve(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           harness.IdentifyInstance(a),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          a.Logger,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	a.Logger.Printf("Listening on port %d", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Logger.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
