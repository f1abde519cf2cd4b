package embedder

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobal clears the singleton between tests.  The production contract is
// init-once per process; tests need a clean slate per case.
func resetGlobal() {
	initOnce = sync.Once{}
	global = nil
	initErr = nil
}

func TestInit_LocalBackend(t *testing.T) {
	resetGlobal()
	defer resetGlobal()

	require.NoError(t, Init(BackendLocal, 128))

	p, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 128, p.Dim())

	v, err := p.Embed(context.Background(), "test")
	require.NoError(t, err)
	assert.Len(t, v, 128)
}

func TestInit_UnknownBackendFails(t *testing.T) {
	resetGlobal()
	defer resetGlobal()

	err := Init("quantum", 128)
	require.Error(t, err)

	// Failure is sticky: Get reports the same error, and a retry with a
	// valid backend does not resurrect the process.
	_, err2 := Get()
	assert.Equal(t, err, err2)
	assert.Equal(t, err, Init(BackendLocal, 128))
}

func TestInit_OnlyFirstCallWins(t *testing.T) {
	resetGlobal()
	defer resetGlobal()

	require.NoError(t, Init(BackendLocal, 64))
	require.NoError(t, Init(BackendLocal, 4096), "second Init is a no-op")

	p, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 64, p.Dim())
}

func TestGet_BeforeInit(t *testing.T) {
	resetGlobal()
	defer resetGlobal()

	_, err := Get()
	assert.Error(t, err)
}
