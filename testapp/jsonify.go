package testapp

import (
	"net/http"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// NewJSONifyApp decodes the JSON in the value query parameter and writes it back out in
// compact form, followed by a newline.
func NewJSONifyApp(config *appconfig.Config) (*App, error) {
	app := NewApp("jsonify", config)
	app.Router.HandleFunc("/jsonify", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("value")
		value := ldvalue.Parse([]byte(raw))
		if value.IsNull() && raw != "null" {
			writeJSON(w, http.StatusBadRequest, messageBody("value must be valid JSON"))
			return
		}
		writeJSON(w, http.StatusOK, value)
	}).Methods(http.MethodGet).Name("jsonify")
	return app, nil
}

func writeJSON(w http.ResponseWriter, status int, value ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(value.JSONString() + "\n"))
}

func messageBody(msg string) ldvalue.Value {
	return ldvalue.ObjectBuild().Set("msg", ldvalue.String(msg)).Build()
}
