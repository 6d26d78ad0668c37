package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is the deployment configuration.
type Config struct {
	// OutputRoot is the directory every run directory is created under.
	OutputRoot string `yaml:"output_root"`
	// Delivery is "persistent" or "ephemeral". It has no default.
	Delivery string `yaml:"delivery"`
	// Parallel bounds how many jobs of a batch run at once.
	Parallel  int    `yaml:"parallel"`
	URLPrefix string `yaml:"url_prefix"`

	Kernel   KernelConfig `yaml:"kernel"`
	Log      LogConfig    `yaml:"log"`
	Defaults NamesConfig  `yaml:"defaults"`
	Notify   NotifyConfig `yaml:"notify"`
}

type KernelConfig struct {
	// Backend is "memory" (the built-in development kernel) or "native".
	Backend string `yaml:"backend"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NamesConfig holds the fallback names used when a job's output names
// sanitize to nothing.
type NamesConfig struct {
	Dir           string `yaml:"dir"`
	StepFile      string `yaml:"step_file"`
	StlFile       string `yaml:"stl_file"`
	DeltaStepFile string `yaml:"delta_step_file"`
	DeltaStlFile  string `yaml:"delta_stl_file"`
}

// NotifyConfig configures the socket.io run-event emitter. It is disabled
// while SocketIOURL is empty.
type NotifyConfig struct {
	SocketIOURL        string        `yaml:"socketio_url"`
	Namespace          string        `yaml:"namespace"`
	Event              string        `yaml:"event"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

const (
	BackendMemory = "memory"
	BackendNative = "native"
)

var (
	validDeliveries = []string{"persistent", "ephemeral"}
	validBackends   = []string{BackendMemory, BackendNative}
	validLevels     = []string{"debug", "info", "warn", "error"}
	validFormats    = []string{"text", "json"}
)

// ConfigError describes one invalid configuration value.
type ConfigError struct {
	Field   string // yaml key, dotted for nested values
	Value   any    // the offending value, nil when missing
	Message string
	Hint    string
}

func (e *ConfigError) Error() string {
	msg := "config: " + e.Field
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// Validate checks every field and joins all problems found. Each problem is a
// *ConfigError.
func (c *Config) Validate() error {
	var errs []error
	add := func(e *ConfigError) { errs = append(errs, e) }

	switch d := strings.ToLower(strings.TrimSpace(c.Delivery)); {
	case d == "":
		add(&ConfigError{
			Field:   "delivery",
			Message: "delivery mode is required",
			Hint:    "set delivery to persistent (artifacts stay on disk) or ephemeral (each artifact is deleted after its first fetch)",
		})
	case !slices.Contains(validDeliveries, d):
		add(&ConfigError{Field: "delivery", Value: c.Delivery, Message: "unknown delivery mode", Hint: oneOf(validDeliveries)})
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		add(&ConfigError{Field: "output_root", Message: "must not be empty"})
	}
	if c.Parallel < 1 {
		add(&ConfigError{Field: "parallel", Value: c.Parallel, Message: "must be at least 1"})
	}
	if !slices.Contains(validBackends, c.Kernel.Backend) {
		add(&ConfigError{Field: "kernel.backend", Value: c.Kernel.Backend, Message: "unknown kernel backend", Hint: oneOf(validBackends)})
	}
	if !slices.Contains(validLevels, c.Log.Level) {
		add(&ConfigError{Field: "log.level", Value: c.Log.Level, Message: "unknown log level", Hint: oneOf(validLevels)})
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		add(&ConfigError{Field: "log.format", Value: c.Log.Format, Message: "unknown log format", Hint: oneOf(validFormats)})
	}
	if c.Notify.SocketIOURL != "" && c.Notify.Timeout <= 0 {
		add(&ConfigError{Field: "notify.timeout", Value: c.Notify.Timeout, Message: "must be positive when notify.socketio_url is set"})
	}
	return errors.Join(errs...)
}

func oneOf(values []string) string {
	return "use one of: " + strings.Join(values, ", ")
}
