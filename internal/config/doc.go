// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, SCRY_ environment variables and
// command-line flags, in increasing order of precedence.
package config
