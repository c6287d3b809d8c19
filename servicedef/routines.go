package servicedef

// Names of the routines that the test application registers. Each one is a separate
// application instance with its own routes.
const (
	RoutineHello    = "hello"
	RoutineForm     = "form"
	RoutineQuery    = "query"
	RoutineRedirect = "redirect"
	RoutineTemplate = "template"
	RoutineAuth     = "auth"
	RoutineSession  = "session"
	RoutineJSONify  = "jsonify"
	RoutineMethods  = "methods"
	RoutineUsers    = "users"
	RoutineViews    = "views"
)

// The application reads its per-instance configuration from environment variables with this
// prefix. Values are decoded as JSON when possible.
const ConfigEnvPrefix = "WEBAPP_"

// Configuration keys, without the prefix.
const (
	ConfigJWTSecretKey = "JWT_SECRET_KEY"
	ConfigServerName   = "SERVER_NAME"
	ConfigSecretKey    = "SECRET_KEY"
	ConfigMethods      = "METHODS"
	ConfigDebug        = "DEBUG"

	// ConfigFile names a JSON or YAML file whose values the app loads before applying its
	// other WEBAPP_ variables.
	ConfigFile = "CONFIG_FILE"
)

const LivenessPath = "/is_alive"
