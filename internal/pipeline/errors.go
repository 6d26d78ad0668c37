package pipeline

import (
	"errors"
	"fmt"

	"github.com/vk/millgrid/internal/diag"
)

var (
	// ErrArtifactNotFound is returned by Fetch for an unknown run or file,
	// and for an ephemeral artifact that was already served.
	ErrArtifactNotFound = errors.New("pipeline: artifact not found")
	// ErrInvalidRunID is returned by Fetch for a run id that could not have
	// been issued by Run.
	ErrInvalidRunID = errors.New("pipeline: invalid run id")
	// ErrNoDelivery means the deployment never chose a delivery mode.
	ErrNoDelivery = errors.New("pipeline: delivery mode must be set to persistent or ephemeral")
)

// ValidationError carries the full diagnostic list of a rejected job.
type ValidationError struct {
	Diagnostics diag.Diagnostics
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("job failed validation: %s", e.Diagnostics.Error())
}

// IOError wraps a filesystem failure while laying out or reading artifacts.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pipeline: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
