package webtests

import (
	"strings"

	"github.com/webcontract/web-contract-tests/framework/driver"
	"github.com/webcontract/web-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoAuthTests(t *T) {
	login := driver.Post("/login")

	t.Run("login without credentials", func(t *T) {
		app := t.StartApp(servicedef.RoutineAuth)

		resp := t.Do(t.HTTP(), app, login.WithJSON(map[string]any{}))
		assert.Equal(t, 400, resp.StatusCode)
		assert.JSONEq(t, `{"msg": "Username and password are required"}`, resp.Text())
	})

	t.Run("login with a body that is not JSON", func(t *T) {
		app := t.StartApp(servicedef.RoutineAuth)

		resp := t.Do(t.HTTP(), app, login.WithFormValue("username", "user1"))
		assert.Equal(t, 400, resp.StatusCode)
		assert.JSONEq(t, `{"msg": "Invalid JSON body"}`, resp.Text())
	})

	t.Run("login with wrong credentials", func(t *T) {
		app := t.StartApp(servicedef.RoutineAuth)

		resp := t.Do(t.HTTP(), app,
			login.WithJSON(servicedef.LoginParams{Username: "user12345", Password: "password11234"}))
		assert.Equal(t, 401, resp.StatusCode)
		assert.JSONEq(t, `{"msg": "Invalid credentials"}`, resp.Text())
	})

	t.Run("login and access protected route", func(t *T) {
		app := t.StartApp(servicedef.RoutineAuth)
		client := t.HTTP()

		resp := t.Do(client, app, login.WithJSON(servicedef.LoginParams{Username: "user1", Password: "password1"}))
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Mimetype())
		var token servicedef.TokenResponse
		require.NoError(t, resp.DecodeJSON(&token))
		require.NotEmpty(t, token.AccessToken, "response did not contain access_token")

		resp = t.Do(client, app, driver.Get("/protected").WithBearerToken(token.AccessToken))
		assert.Equal(t, 200, resp.StatusCode)
		var message servicedef.MessageResponse
		require.NoError(t, resp.DecodeJSON(&message))
		assert.Equal(t, servicedef.MessageResponse{Msg: "Hello, user1!"}, message)
	})

	t.Run("protected route without token", func(t *T) {
		app := t.StartApp(servicedef.RoutineAuth)

		resp := t.Do(t.HTTP(), app, driver.Get("/protected"))
		assert.Equal(t, 401, resp.StatusCode)
		assert.JSONEq(t, `{"msg": "Missing Authorization Header"}`, resp.Text())
	})

	t.Run("token from a different secret is rejected", func(t *T) {
		issuer := t.StartApp(servicedef.RoutineAuth, Setting(servicedef.ConfigJWTSecretKey, "another-secret"))
		app := t.StartApp(servicedef.RoutineAuth)
		client := t.HTTP()

		resp := t.Do(client, issuer, login.WithJSON(servicedef.LoginParams{Username: "user2", Password: "password2"}))
		var token servicedef.TokenResponse
		require.NoError(t, resp.DecodeJSON(&token))

		resp = t.Do(client, app, driver.Get("/protected").WithBearerToken(token.AccessToken))
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func DoSessionTests(t *T) {
	const serverName = "example.com"

	t.Run("value is stored and read back", func(t *T) {
		app := t.StartApp(servicedef.RoutineSession, Setting(servicedef.ConfigServerName, serverName))
		client := t.HTTP(driver.WithoutCookieJar())

		resp := t.Do(client, app, driver.Get("/").WithHost(serverName))
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "Hello World", resp.Text())
		setCookie := resp.SetCookie()
		assert.Contains(t, strings.ToLower(setCookie), "domain="+serverName)
		assert.Contains(t, strings.ToLower(setCookie), "httponly")

		resp = t.Do(client, app, driver.Get("/session").WithHost(serverName).WithCookies(resp.Cookies()...))
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "42", resp.Text())
	})

	t.Run("other host is not served", func(t *T) {
		app := t.StartApp(servicedef.RoutineSession, Setting(servicedef.ConfigServerName, serverName))

		resp := t.Do(t.HTTP(), app, driver.Get("/").WithHost("other.com"))
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("cookie jar keeps the session", func(t *T) {
		app := t.StartApp(servicedef.RoutineSession)
		client := t.HTTP()

		resp := t.Do(client, app, driver.Get("/"))
		require.Equal(t, 200, resp.StatusCode)
		assert.NotContains(t, strings.ToLower(resp.SetCookie()), "domain=")

		resp = t.Do(client, app, driver.Get("/session"))
		assert.Equal(t, "42", resp.Text())
	})
}
