package testapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	defaultJWTSecret = "super-secret"
	accessTokenTTL   = 15 * time.Minute
)

// NewAuthApp has a fixed set of users who can log in with a JSON body to get a bearer token,
// which they can then use to access a protected route.
func NewAuthApp(config *appconfig.Config) (*App, error) {
	app := NewApp("auth", config)
	a := &authenticator{
		secret: []byte(config.String(servicedef.ConfigJWTSecretKey, defaultJWTSecret)),
		users: map[string]string{
			"user1": "password1",
			"user2": "password2",
		},
		now: time.Now,
	}
	app.Router.HandleFunc("/login", a.login).Methods(http.MethodPost).Name("login")
	app.Router.HandleFunc("/protected", a.protected).Methods(http.MethodGet).Name("protected")
	return app, nil
}

type authenticator struct {
	secret []byte
	users  map[string]string
	now    func() time.Time
}

func (a *authenticator) login(w http.ResponseWriter, r *http.Request) {
	var params servicedef.LoginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody("Invalid JSON body"))
		return
	}
	if params.Username == "" || params.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageBody("Username and password are required"))
		return
	}
	if password, ok := a.users[params.Username]; !ok || password != params.Password {
		writeJSON(w, http.StatusUnauthorized, messageBody("Invalid credentials"))
		return
	}
	token, err := a.issue(params.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, messageBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Set("access_token", ldvalue.String(token)).Build())
}

func (a *authenticator) issue(username string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *authenticator) protected(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeJSON(w, http.StatusUnauthorized, messageBody("Missing Authorization Header"))
		return
	}
	scheme, tokenString, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || tokenString == "" {
		writeJSON(w, http.StatusUnprocessableEntity,
			messageBody("Bad Authorization header. Expected 'Authorization: Bearer <JWT>'"))
		return
	}
	username, err := a.verify(tokenString)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, messageBody("Token has expired"))
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, messageBody("Signature verification failed"))
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, messageBody("Invalid token"))
	default:
		writeJSON(w, http.StatusOK, messageBody("Hello, "+username+"!"))
	}
}

func (a *authenticator) verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
