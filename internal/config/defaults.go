package config

import "time"

// Default returns the built-in configuration. Delivery is deliberately left
// empty: a deployment must choose it.
func Default() *Config {
	return &Config{
		OutputRoot: "output",
		Parallel:   4,
		URLPrefix:  "/output",
		Kernel:     KernelConfig{Backend: BackendMemory},
		Log:        LogConfig{Level: "info", Format: "text"},
		Defaults: NamesConfig{
			Dir:           "output",
			StepFile:      "result.step",
			StlFile:       "result.stl",
			DeltaStepFile: "delta.step",
			DeltaStlFile:  "delta.stl",
		},
		Notify: NotifyConfig{
			Namespace: "/",
			Event:     "run",
			Timeout:   5 * time.Second,
		},
	}
}
