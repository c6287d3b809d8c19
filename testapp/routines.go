package testapp

import (
	"context"

	"github.com/webcontract/web-contract-tests/framework/harness"
	"github.com/webcontract/web-contract-tests/servicedef"
	"github.com/webcontract/web-contract-tests/testapp/appconfig"
)

type appFactory func(*appconfig.Config) (*App, error)

var factories = map[string]appFactory{
	servicedef.RoutineHello:    NewHelloApp,
	servicedef.RoutineForm:     NewFormApp,
	servicedef.RoutineQuery:    NewQueryApp,
	servicedef.RoutineRedirect: NewRedirectApp,
	servicedef.RoutineTemplate: NewTemplateApp,
	servicedef.RoutineAuth:     NewAuthApp,
	servicedef.RoutineSession:  NewSessionApp,
	servicedef.RoutineJSONify:  NewJSONifyApp,
	servicedef.RoutineMethods:  NewMethodsApp,
	servicedef.RoutineUsers:    NewUsersApp,
	servicedef.RoutineViews:    NewViewsApp,
}

// Routines returns a routine for every application. Each routine builds its configuration
// with LoadConfig in its own process.
func Routines() harness.Routines {
	ret := make(harness.Routines, len(factories))
	for name, factory := range factories {
		ret[name] = routineFor(factory)
	}
	return ret
}

func routineFor(factory appFactory) harness.Routine {
	return func(ctx context.Context, port int) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		app, err := factory(config)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Serve(ctx, port)
	}
}
