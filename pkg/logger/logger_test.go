package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.log")
	Init("production", "info", path)
	t.Cleanup(func() { Init("production", "error", "") })

	Settlement(context.Background(), "o-1", "website", "committed", 12*time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":"o-1"`)
	assert.Contains(t, string(data), `"outcome":"committed"`)
}

func TestWithContext(t *testing.T) {
	Init("production", "info", "")

	assert.Same(t, &log, WithContext(context.Background()))

	l := WithRequestID("req-1")
	ctx := NewContext(context.Background(), &l)
	assert.Same(t, &l, WithContext(ctx))
}
