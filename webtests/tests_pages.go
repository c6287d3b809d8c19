package webtests

import (
	"strings"

	"github.com/webcontract/web-contract-tests/framework/driver"
	"github.com/webcontract/web-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
)

func assertRendered(t *T, expectedBody string, resp driver.ResponseCapture) {
	assert.Equal(t, driver.NormalizeMarkup(driver.WrapHTML(expectedBody)), driver.NormalizeMarkup(resp.Document))
}

func DoHelloWorldTests(t *T) {
	t.Run("browser", func(t *T) {
		browser := t.Browser()
		app := t.StartApp(servicedef.RoutineHello)

		resp := t.Do(browser, app, driver.Get("/"))
		assertRendered(t, "Hello World!", resp)
	})

	t.Run("HTTP", func(t *T) {
		app := t.StartApp(servicedef.RoutineHello)

		resp := t.Do(t.HTTP(), app, driver.Get("/"))
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "text/html", resp.Mimetype())
		assert.Equal(t, "Hello World!", resp.Text())
	})
}

func DoFormTests(t *T) {
	expected := "{'arg1': 'value1', 'arg2': 'value2'}"
	post := driver.Post("/").WithFormValue("arg1", "value1").WithFormValue("arg2", "value2")

	t.Run("HTTP", func(t *T) {
		app := t.StartApp(servicedef.RoutineForm)

		resp := t.Do(t.HTTP(), app, post)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, expected, resp.Text())
	})

	t.Run("browser", func(t *T) {
		browser := t.Browser()
		app := t.StartApp(servicedef.RoutineForm)

		resp := t.Do(browser, app, post)
		assertRendered(t, expected, resp)
	})

	t.Run("missing field", func(t *T) {
		app := t.StartApp(servicedef.RoutineForm)

		resp := t.Do(t.HTTP(), app, driver.Post("/").WithFormValue("arg1", "value1"))
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func DoQueryArgumentTests(t *T) {
	t.Run("browser", func(t *T) {
		browser := t.Browser()
		app := t.StartApp(servicedef.RoutineQuery)

		resp := t.Do(browser, app, driver.Get("/").WithQuery("name", "name"))
		assertRendered(t, "name", resp)
	})

	t.Run("HTTP", func(t *T) {
		app := t.StartApp(servicedef.RoutineQuery)

		resp := t.Do(t.HTTP(), app, driver.Get("/").WithQuery("name", "some name"))
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "some name", resp.Text())
	})
}

func DoRedirectTests(t *T) {
	t.Run("redirect is followed", func(t *T) {
		app := t.StartApp(servicedef.RoutineRedirect)

		resp := t.Do(t.HTTP(), app, driver.Get("/old_route"))
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "New route", resp.Text())
		assert.Equal(t, app.URL("/new_route"), resp.URL)
	})

	t.Run("redirect response", func(t *T) {
		app := t.StartApp(servicedef.RoutineRedirect)

		resp := t.Do(t.HTTP(driver.NoRedirects()), app, driver.Get("/old_route"))
		assert.Equal(t, 302, resp.StatusCode)
		assert.Equal(t, "/new_route", resp.Header.Get("Location"))
	})

	t.Run("browser", func(t *T) {
		browser := t.Browser()
		app := t.StartApp(servicedef.RoutineRedirect)

		resp := t.Do(browser, app, driver.Get("/old_route"))
		assertRendered(t, "New route", resp)
		assert.Equal(t, app.URL("/new_route"), resp.URL)
	})
}

func DoTemplateTests(t *T) {
	t.Run("substitution", func(t *T) {
		app := t.StartApp(servicedef.RoutineTemplate)

		resp := t.Do(t.HTTP(), app, driver.Get("/").WithQuery("name", "Alice"))
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "<h1>Hello, Alice!</h1>", strings.TrimSpace(resp.Text()))
	})

	t.Run("default value", func(t *T) {
		app := t.StartApp(servicedef.RoutineTemplate)

		resp := t.Do(t.HTTP(), app, driver.Get("/"))
		assert.Equal(t, "<h1>Hello, World!</h1>", strings.TrimSpace(resp.Text()))
	})

	t.Run("substitution is escaped", func(t *T) {
		app := t.StartApp(servicedef.RoutineTemplate)

		resp := t.Do(t.HTTP(), app, driver.Get("/").WithQuery("name", "<b>"))
		assert.Equal(t, "<h1>Hello, &lt;b&gt;!</h1>", strings.TrimSpace(resp.Text()))
	})

	t.Run("browser", func(t *T) {
		browser := t.Browser()
		app := t.StartApp(servicedef.RoutineTemplate)

		resp := t.Do(browser, app, driver.Get("/").WithQuery("name", "Alice"))
		assertRendered(t, "<h1>Hello, Alice!</h1>", resp)
	})

	t.Run("template strings", func(t *T) {
		app := t.StartApp(servicedef.RoutineTemplate)
		client := t.HTTP()

		for _, c := range []struct{ kind, expected string }{
			{"int", "42"},
			{"string", "42"},
			{"list", "[0, 1]"},
			{"dict", "{1: 2}"},
		} {
			resp := t.Do(client, app, driver.Get("/render/"+c.kind))
			assert.Equal(t, 200, resp.StatusCode, c.kind)
			assert.Equal(t, c.expected, resp.Text(), c.kind)
		}
	})
}

func DoViewTests(t *T) {
	t.Run("dispatch by method", func(t *T) {
		app := t.StartApp(servicedef.RoutineViews)
		client := t.HTTP()

		for _, c := range []struct {
			req      driver.RequestSpec
			status   int
			expected string
		}{
			{driver.Get("/myview/"), 200, "List"},
			{driver.Get("/myview/42"), 200, "Get 42"},
			{driver.Post("/myview/create"), 200, "Create"},
			{driver.Delete("/myview/42"), 405, ""},
		} {
			resp := t.Do(client, app, c.req)
			assert.Equal(t, c.status, resp.StatusCode, "%s %s", c.req.Method, c.req.Path)
			if c.expected != "" {
				assert.Equal(t, c.expected, resp.Text())
			}
		}
	})

	t.Run("URL building", func(t *T) {
		app := t.StartApp(servicedef.RoutineViews)
		client := t.HTTP()
		urlFor := driver.Get("/url_for").WithQuery("endpoint", "myview")

		for _, c := range []struct {
			req      driver.RequestSpec
			expected string
		}{
			{urlFor.WithQuery("method", "GET"), "/myview/"},
			{urlFor.WithQuery("method", "GET").WithQuery("id", "42"), "/myview/42"},
			{urlFor.WithQuery("method", "POST"), "/myview/create"},
			{driver.Get("/url_for").WithQuery("endpoint", "index"), "/"},
		} {
			resp := t.Do(client, app, c.req)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, c.expected, resp.Text())
		}

		for _, method := range []string{"DELETE", "PUT", "PATCH"} {
			resp := t.Do(client, app, urlFor.WithQuery("method", method))
			assert.Equal(t, 400, resp.StatusCode, method)
		}
		resp := t.Do(client, app, driver.Get("/url_for").WithQuery("endpoint", "index2"))
		assert.Equal(t, 400, resp.StatusCode)
	})
}
