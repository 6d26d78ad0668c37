package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MILLGRID_"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the process environment. The result is not validated.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays MILLGRID_* variables onto c.
func (c *Config) applyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"OUTPUT_ROOT":    &c.OutputRoot,
		"DELIVERY":       &c.Delivery,
		"URL_PREFIX":     &c.URLPrefix,
		"KERNEL":         &c.Kernel.Backend,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"SOCKETIO_URL":   &c.Notify.SocketIOURL,
		"SOCKETIO_EVENT": &c.Notify.Event,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "PARALLEL"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "parallel", Value: v, Message: "not an integer", Hint: "check " + EnvPrefix + "PARALLEL"}
		}
		c.Parallel = n
	}
	if v, ok := lookup(EnvPrefix + "SOCKETIO_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "notify.timeout", Value: v, Message: "not a duration", Hint: "use a value such as 5s"}
		}
		c.Notify.Timeout = d
	}
	return nil
}

// YAML renders c in the file format read by Load.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
