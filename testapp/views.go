package testapp

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/gorilla/mux"
)

// itemView dispatches on the request method, so one handler serves every route of the
// "myview" endpoint.
type itemView struct{}

func (itemView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		id, ok := mux.Vars(r)["id"]
		if !ok {
			writeText(w, http.StatusOK, "List")
			return
		}
		n, err := strconv.Atoi(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeText(w, http.StatusOK, fmt.Sprintf("Get %d", n))
	case http.MethodPost:
		writeText(w, http.StatusOK, "Create")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// NewViewsApp serves a method-dispatched view under three routes, and exposes URL building
// at /url_for?endpoint=...&method=... with any other query parameters as route variables.
func NewViewsApp(config *appconfig.Config) (*App, error) {
	app := NewApp("views", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "hello")
	}).Methods(http.MethodGet).Name("index")

	view := itemView{}
	app.Endpoint("myview", "/myview/", view, http.MethodGet)
	app.Endpoint("myview", "/myview/{id:[0-9]+}", view, http.MethodGet)
	app.Endpoint("myview", "/myview/create", view, http.MethodPost)

	app.Router.HandleFunc("/url_for", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		endpoint, method := query.Get("endpoint"), query.Get("method")
		query.Del("endpoint")
		query.Del("method")
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)
		var pairs []string
		for _, name := range names {
			pairs = append(pairs, name, query.Get(name))
		}
		u, err := app.URLFor(endpoint, method, pairs...)
		if err != nil {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		writeText(w, http.StatusOK, u.String())
	}).Methods(http.MethodGet).Name("url_for")
	return app, nil
}
