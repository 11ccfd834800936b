// Package config holds pageask's runtime configuration: model endpoint,
// browser settings, per-site request overrides, server and report options.
// Values come from defaults, the optional .pageask YAML file, environment
// variables and finally command line flags, in increasing precedence.
package config
