// Package config defines the deployment configuration of millgrid: where run
// directories live, how artifacts are delivered, which kernel backend runs
// the jobs, logging, and the optional run-event notifier.
//
// Values are resolved with the precedence flags > environment > file >
// defaults. The file is YAML; environment variables use the MILLGRID_ prefix.
// Flags are applied by the caller on the returned Config before Validate.
package config
