package env

import "os"

// AdminCreds holds the single operator identity the admin API
// authenticates against: Basic auth, login-issued sessions, and the
// static bearer token all check against this one set of credentials.
type AdminCreds struct {
	Username string
	Password string
	Token    string
}

// Admin is loaded once at process start from the environment. Defaults
// keep a fresh checkout runnable without any setup; override them in
// any real deployment.
var Admin = AdminCreds{
	Username: getenv("STRIDEKERND_ADMIN_USERNAME", "admin"),
	Password: getenv("STRIDEKERND_ADMIN_PASSWORD", "admin"),
	Token:    getenv("STRIDEKERND_ADMIN_TOKEN", ""),
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
