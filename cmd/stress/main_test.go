package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stressEnv(t *testing.T, backend string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PANTRY_STORE_BACKEND", backend)
	t.Setenv("PANTRY_LOG_LEVEL", "error")
}

func TestRun_MemoryBackendLosesNothing(t *testing.T) {
	stressEnv(t, "memory")

	require.NoError(t, run(context.Background()))
}

func TestRun_ReturnsSetupErrors(t *testing.T) {
	stressEnv(t, "floppy")

	err := run(context.Background())
	assert.Error(t, err)
}
