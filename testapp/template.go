package testapp

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/Masterminds/sprig/v3"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFiles embed.FS

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(sprig.FuncMap()).ParseFS(templateFiles, "templates/*.html")
}

type stringRendering struct {
	text  string
	value any
}

// stringRenderings are rendered from template source at request time, one per kind of
// value.
var stringRenderings = map[string]stringRendering{
	"int":    {text: "{{ .Config }}", value: 42},
	"string": {text: "{{ .Config }}", value: "42"},
	"list":   {text: `[{{ join ", " .Config }}]`, value: []int{0, 1}},
	"dict":   {text: `{{ "{" }}{{ range $k, $v := .Config }}{{ $k }}: {{ $v }}{{ end }}{{ "}" }}`, value: map[int]int{1: 2}},
}

func renderString(w http.ResponseWriter, text string, value any) error {
	tmpl, err := template.New("string").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.Execute(w, struct{ Config any }{Config: value})
}

// NewTemplateApp renders the template index.html with the name query parameter, and
// renders template strings at /render/{kind}.
func NewTemplateApp(config *appconfig.Config) (*App, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	app := NewApp("template", config)
	app.Router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := struct{ Name string }{Name: r.URL.Query().Get("name")}
		if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
			app.Logger.Printf("Error rendering template: %s", err)
		}
	}).Methods(http.MethodGet).Name("index")
	app.Router.HandleFunc("/render/{kind}", func(w http.ResponseWriter, r *http.Request) {
		rendering, ok := stringRenderings[mux.Vars(r)["kind"]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := renderString(w, rendering.text, rendering.value); err != nil {
			app.Logger.Printf("Error rendering template string: %s", err)
		}
	}).Methods(http.MethodGet).Name("render")
	return app, nil
}
