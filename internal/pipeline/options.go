package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/millgrid/internal/notify"
)

// Delivery selects what happens to artifacts once they are fetched.
type Delivery string

const (
	// Persistent keeps artifacts on disk; they can be fetched any number of
	// times.
	Persistent Delivery = "persistent"
	// Ephemeral deletes each artifact right after its first fetch and removes
	// the run directory once the last one is gone.
	Ephemeral Delivery = "ephemeral"
)

// ParseDelivery accepts "persistent" or "ephemeral", ignoring case. There is
// no default.
func ParseDelivery(s string) (Delivery, error) {
	switch d := Delivery(strings.ToLower(strings.TrimSpace(s))); d {
	case Persistent, Ephemeral:
		return d, nil
	case "":
		return "", ErrNoDelivery
	default:
		return "", fmt.Errorf("unknown delivery mode %q: %w", s, ErrNoDelivery)
	}
}

// Names are the fallbacks used when a sanitized output name comes out empty.
type Names struct {
	Dir           string
	StepFile      string
	StlFile       string
	DeltaStepFile string
	DeltaStlFile  string
}

// DefaultNames is used for any Names field left blank.
var DefaultNames = Names{
	Dir:           "output",
	StepFile:      "result.step",
	StlFile:       "result.stl",
	DeltaStepFile: "delta.step",
	DeltaStlFile:  "delta.stl",
}

func (n Names) withDefaults() Names {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Names{
		Dir:           pick(n.Dir, DefaultNames.Dir),
		StepFile:      pick(n.StepFile, DefaultNames.StepFile),
		StlFile:       pick(n.StlFile, DefaultNames.StlFile),
		DeltaStepFile: pick(n.DeltaStepFile, DefaultNames.DeltaStepFile),
		DeltaStlFile:  pick(n.DeltaStlFile, DefaultNames.DeltaStlFile),
	}
}

// Options configures an Orchestrator.
type Options struct {
	// OutputRoot is the directory every run directory is created under.
	OutputRoot string
	// Delivery must be set explicitly.
	Delivery Delivery
	Defaults Names
	// URLPrefix is prepended to artifact URLs in the manifest. Defaults to
	// "/output".
	URLPrefix string
	// Parallel bounds RunBatch. Zero or less means one run at a time.
	Parallel int
	// NewRunID overrides run id generation. The default is a UUIDv7.
	NewRunID func() (string, error)
	Notifier notify.Notifier
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
