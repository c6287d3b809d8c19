package webtests

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/webcontract/web-contract-tests/framework/driver"
	"github.com/webcontract/web-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func DoJSONTests(t *T) {
	scalars := []struct {
		value    ldvalue.Value
		expected string
	}{
		{ldvalue.Int(0), "0\n"},
		{ldvalue.Int(-1), "-1\n"},
		{ldvalue.Int(1), "1\n"},
		{ldvalue.Int(23), "23\n"},
		{ldvalue.Float64(3.14), "3.14\n"},
		{ldvalue.String("s"), `"s"` + "\n"},
		{ldvalue.String("longer string"), `"longer string"` + "\n"},
		{ldvalue.Bool(true), "true\n"},
		{ldvalue.Bool(false), "false\n"},
		{ldvalue.Null(), "null\n"},
	}
	dictionaries := []struct {
		value    string
		expected string
	}{
		{`{"a": 0}`, `{"a":0}`},
		{`{"b": 23}`, `{"b":23}`},
		{`{"c": 3.14}`, `{"c":3.14}`},
		{`{"d": "d"}`, `{"d":"d"}`},
		{`{"e": "hello"}`, `{"e":"hello"}`},
		{`{"f": true}`, `{"f":true}`},
		{`{"g": false}`, `{"g":false}`},
		{`{"h": ["blabla", 102, true]}`, `{"h":["blabla",102,true]}`},
		{`{"i": {"test": "dict"}}`, `{"i":{"test":"dict"}}`},
		{`{"j": -230}`, `{"j":-230}`},
		{`{"k": null}`, `{"k":null}`},
	}

	// One application instance serves all of the round trips.
	t.Run("round trip", func(t *T) {
		app := t.StartApp(servicedef.RoutineJSONify)
		client := t.HTTP()

		check := func(t *T, input, expected string) {
			resp := t.Do(client, app, driver.Get("/jsonify").WithQuery("value", input))
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Mimetype())
			assert.Equal(t, expected, resp.Text())
		}
		for _, p := range scalars {
			p := p
			t.Run(fmt.Sprintf("scalar %s", p.value.JSONString()), func(t *T) {
				check(t, p.value.JSONString(), p.expected)
			})
		}
		for _, p := range dictionaries {
			p := p
			t.Run(fmt.Sprintf("dictionary %s", p.expected), func(t *T) {
				check(t, p.value, p.expected+"\n")
			})
		}
	})

	t.Run("invalid JSON", func(t *T) {
		app := t.StartApp(servicedef.RoutineJSONify)

		resp := t.Do(t.HTTP(), app, driver.Get("/jsonify").WithQuery("value", "{"))
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func DoHTTPMethodTests(t *T) {
	allMethods := []string{"GET", "POST", "DELETE", "PATCH", "PUT"}
	for _, allowed := range [][]string{{}, {"GET"}, allMethods} {
		allowed := allowed
		t.Run(fmt.Sprintf("allowed %v", allowed), func(t *T) {
			app := t.StartApp(servicedef.RoutineMethods, Setting(servicedef.ConfigMethods, allowed))
			client := t.HTTP()

			for _, method := range allMethods {
				expected := 405
				for _, a := range allowed {
					if a == method {
						expected = 200
					}
				}
				resp := t.Do(client, app, driver.Request(method, "/"))
				assert.Equal(t, expected, resp.StatusCode, "status for %s", method)
			}
		})
	}

	t.Run("allowed methods from a config file", func(t *T) {
		dir, err := os.MkdirTemp("", "webapp-config")
		require.NoError(t, err)
		t.Defer(func() { _ = os.RemoveAll(dir) })
		path := filepath.Join(dir, "methods.yaml")
		require.NoError(t, os.WriteFile(path, []byte("METHODS: [POST, PUT]\n"), 0o600))

		app := t.StartApp(servicedef.RoutineMethods, Setting(servicedef.ConfigFile, path))
		client := t.HTTP()

		for method, expected := range map[string]int{"GET": 405, "POST": 200, "PUT": 200, "DELETE": 405} {
			resp := t.Do(client, app, driver.Request(method, "/"))
			assert.Equal(t, expected, resp.StatusCode, "status for %s", method)
		}
	})
}

func DoUserTests(t *T) {
	t.Run("read_all lists users in creation order", func(t *T) {
		app := t.StartApp(servicedef.RoutineUsers)
		client := t.HTTP()

		for _, name := range []string{"name", "name1"} {
			resp := t.Do(client, app, driver.Get("/create_user").WithQuery("name", name))
			assert.Equal(t, 200, resp.StatusCode)
		}
		for i := 0; i < 3; i++ {
			resp := t.Do(client, app, driver.Get("/read_all"))
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, `["name","name1"]`+"\n", resp.Text())
		}
	})

	t.Run("read_user", func(t *T) {
		app := t.StartApp(servicedef.RoutineUsers)
		client := t.HTTP()

		t.Do(client, app, driver.Get("/create_user").WithQuery("name", "name"))
		resp := t.Do(client, app, driver.Get("/read_user").WithQuery("name", "name"))
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"id": 1, "name": "name"}`, resp.Text())

		resp = t.Do(client, app, driver.Get("/read_user").WithQuery("name", "nobody"))
		assert.Equal(t, 404, resp.StatusCode)
	})
}
