package testapp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"
)

// NewMethodsApp serves / for exactly the methods listed in the METHODS setting, which may be
// empty. Any other method gets a 405.
func NewMethodsApp(config *appconfig.Config) (*App, error) {
	methods := []string{}
	if _, present := config.Get(servicedef.ConfigMethods); present {
		list, ok := config.StringList(servicedef.ConfigMethods)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings", servicedef.ConfigMethods)
		}
		for _, m := range list {
			methods = append(methods, strings.ToUpper(m))
		}
	}
	app := NewApp("methods", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "")
	}).Methods(methods...).Name("index")
	return app, nil
}
