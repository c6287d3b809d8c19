package harness

import (
	"net/http"
	"os"
)

const (
	// EnvInstance carries the ServerHandle ID into the child process.
	EnvInstance = "WEBHARNESS_INSTANCE"

	// InstanceHeader is set on every response of a routine child to the value of
	// EnvInstance. Probe uses it to tell the child apart from anything else that happens
	// to be listening on the same port.
	InstanceHeader = "X-Webharness-Instance"
)

// InstanceID returns the handle ID that the launcher passed to this process, or "" if the
// process was not started by Launch.
func InstanceID() string {
	return os.Getenv(EnvInstance)
}

// IdentifyInstance wraps the handler of a routine so that its responses carry
// InstanceHeader. Outside a launched child it returns the handler unchanged.
func IdentifyInstance(next http.Handler) http.Handler {
	id := InstanceID()
	if id == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(InstanceHeader, id)
		next.ServeHTTP(w, r)
	})
}
