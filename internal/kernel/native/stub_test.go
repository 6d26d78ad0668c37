//go:build !cgo || !l1kernel

package native

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/millgrid/internal/kernel"
)

func TestStub_RefusesToOpen(t *testing.T) {
	t.Parallel()

	s, err := kernel.Open(context.Background(), New())

	assert.False(t, Available)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, kernel.ErrSessionInit)
}
