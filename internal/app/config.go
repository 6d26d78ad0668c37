package app

import (
	"strings"

	"github.com/vk/millgrid/internal/config"
	"github.com/vk/millgrid/internal/notify"
	"github.com/vk/millgrid/internal/pipeline"
)

// pipelineOptions maps the deployment configuration onto orchestrator
// options. cfg must already be validated.
func pipelineOptions(cfg *config.Config, n notify.Notifier) pipeline.Options {
	return pipeline.Options{
		OutputRoot: cfg.OutputRoot,
		Delivery:   pipeline.Delivery(strings.ToLower(strings.TrimSpace(cfg.Delivery))),
		Defaults: pipeline.Names{
			Dir:           cfg.Defaults.Dir,
			StepFile:      cfg.Defaults.StepFile,
			StlFile:       cfg.Defaults.StlFile,
			DeltaStepFile: cfg.Defaults.DeltaStepFile,
			DeltaStlFile:  cfg.Defaults.DeltaStlFile,
		},
		URLPrefix: cfg.URLPrefix,
		Parallel:  cfg.Parallel,
		Notifier:  n,
	}
}
