package testapp

import (
	"net/http"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"
)

func NewHelloApp(config *appconfig.Config) (*App, error) {
	app := NewApp("hello", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "Hello World!")
	}).Name("index")
	return app, nil
}

func NewQueryApp(config *appconfig.Config) (*App, error) {
	app := NewApp("query", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, r.URL.Query().Get("name"))
	}).Methods(http.MethodGet).Name("index")
	return app, nil
}

func NewRedirectApp(config *appconfig.Config) (*App, error) {
	app := NewApp("redirect", config)
	app.Router.HandleFunc("/old_route", func(w http.ResponseWriter, r *http.Request) {
		target, err := app.URLFor("new_route", http.MethodGet)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, target.String(), http.StatusFound)
	}).Methods(http.MethodGet).Name("old_route")
	app.Router.HandleFunc("/new_route", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "New route")
	}).Methods(http.MethodGet).Name("new_route")
	return app, nil
}
