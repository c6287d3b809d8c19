package webtests

import (
	"net"
	"strconv"

	"github.com/webcontract/web-contract-tests/framework/driver"
	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoIsolationTests(t *T) {
	t.Run("each instance has its own port and process", func(t *T) {
		app1 := t.StartApp(servicedef.RoutineHello)
		app2 := t.StartApp(servicedef.RoutineHello)

		assert.NotEqual(t, app1.Port, app2.Port)
		assert.NotEqual(t, app1.PID, app2.PID)
		assert.Equal(t, harness.StateReady, app1.State())
		assert.Equal(t, harness.StateReady, app2.State())

		client := t.HTTP()
		for _, app := range []*harness.ServerHandle{app1, app2} {
			resp := t.Do(client, app, driver.Get(servicedef.LivenessPath))
			assert.Equal(t, app.ID.String(), resp.Header.Get(harness.InstanceHeader))
		}
	})

	t.Run("instances do not share data", func(t *T) {
		app1 := t.StartApp(servicedef.RoutineUsers)
		app2 := t.StartApp(servicedef.RoutineUsers)
		client := t.HTTP()

		t.Do(client, app1, driver.Get("/create_user").WithQuery("name", "name"))
		resp := t.Do(client, app2, driver.Get("/read_all"))
		assert.Equal(t, "[]\n", resp.Text())
	})

	t.Run("port is released after teardown", func(t *T) {
		app := t.StartApp(servicedef.RoutineHello)
		require.NoError(t, app.Close())
		assert.Equal(t, harness.StateTerminated, app.State())

		listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(app.Port)))
		require.NoError(t, err, "port %d is still bound", app.Port)
		_ = listener.Close()
	})
}
