package testdb

import (
	"net/url"
	"os"
)

// Environment variables consulted for the PostgreSQL test database, in order.
const (
	EnvTestDBURL   = "SCRY_TEST_DB_URL"
	EnvDatabaseURL = "DATABASE_URL"
)

// PostgresURL returns the configured PostgreSQL test database URL, or "".
func PostgresURL() string {
	for _, name := range []string{EnvTestDBURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// IsCI reports whether the tests run under a CI system.
func IsCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// MaskURL hides the password of a database URL so it can be logged.
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable database url]"
	}
	return u.Redacted()
}
