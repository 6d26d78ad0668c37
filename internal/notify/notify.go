// Package notify publishes pipeline run lifecycle events.
//
// Notifications are best effort. A notifier never reports failure to its
// caller; a run must not fail because nobody was listening.
package notify

import (
	"context"
	"time"

	"github.com/vk/millgrid/internal/ctxlog"
)

// Event types.
const (
	RunStarted   = "run.started"
	RunCompleted = "run.completed"
	RunFailed    = "run.failed"
)

// Event is one lifecycle notification.
type Event struct {
	Type  string         `json:"type"`
	RunID string         `json:"run_id"`
	Time  time.Time      `json:"time"`
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

// Notifier receives lifecycle events. Implementations must be safe for
// concurrent use; batch runs notify from several goroutines.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Log writes every event to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx).With("event", ev.Type, "run_id", ev.RunID)
	if ev.Error != "" {
		logger.Warn("Run event.", "error", ev.Error)
		return
	}
	logger.Info("Run event.", "data", ev.Data)
}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}

// Recorder keeps every event in memory. It is meant for tests.
type Recorder struct {
	events chan Event
}

// NewRecorder returns a Recorder buffering up to size events; further events
// are dropped.
func NewRecorder(size int) *Recorder {
	return &Recorder{events: make(chan Event, size)}
}

func (r *Recorder) Notify(_ context.Context, ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// Drain returns the buffered events in arrival order.
func (r *Recorder) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-r.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}
