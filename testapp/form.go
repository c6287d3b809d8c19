package testapp

import (
	"fmt"
	"net/http"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"
)

// NewFormApp echoes the form fields arg1 and arg2 back in the format of a Python dict
// literal, which is what the scenario's expected body looks like.
func NewFormApp(config *appconfig.Config) (*App, error) {
	app := NewApp("form", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		arg1, ok1 := r.PostForm["arg1"]
		arg2, ok2 := r.PostForm["arg2"]
		if !ok1 || !ok2 {
			writeText(w, http.StatusBadRequest, "arg1 and arg2 are required")
			return
		}
		writeText(w, http.StatusOK, fmt.Sprintf("{'arg1': '%s', 'arg2': '%s'}", arg1[0], arg2[0]))
	}).Methods(http.MethodPost).Name("index")
	return app, nil
}
