package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello", "run_id", "r1")

	assert.Same(t, logger, FromContext(ctx))
	assert.Contains(t, buf.String(), "run_id=r1")
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
