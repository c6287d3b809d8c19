package testapp

import (
	"fmt"
	"net/http"

	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "session"

// NewSessionApp stores a value in a cookie session on GET / and reads it back on
// GET /session. If SERVER_NAME is configured, the routes only answer requests for that host
// and the cookie is scoped to that domain.
func NewSessionApp(config *appconfig.Config) (*App, error) {
	app := NewApp("session", config)
	secret := config.String(servicedef.ConfigSecretKey, "")
	if secret == "" {
		secret = uuid.NewString()
	}
	serverName := config.String(servicedef.ConfigServerName, "")

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   serverName,
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	router := app.Router
	if serverName != "" {
		router = app.Router.Host(serverName).Subrouter()
	}
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		session, _ := store.Get(r, sessionName)
		session.Values["testing"] = "42"
		if err := session.Save(r, w); err != nil {
			writeText(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeText(w, http.StatusOK, "Hello World")
	}).Methods(http.MethodGet).Name("index")
	router.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		session, err := store.Get(r, sessionName)
		value, ok := session.Values["testing"].(string)
		if err != nil || !ok {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("no value in session %q", sessionName))
			return
		}
		writeText(w, http.StatusOK, value)
	}).Methods(http.MethodGet).Name("session")
	return app, nil
}
