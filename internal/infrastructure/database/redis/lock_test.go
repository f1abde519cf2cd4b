package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
)

func TestMutex_TryLockContention(t *testing.T) {
	client, mock := newMockClient(t)
	m := NewMutex(client, "dedup", time.Minute, logging.NewNopLogger())

	mock.Regexp().ExpectSetNX("sceniq:lock:dedup", `.+`, time.Minute).SetVal(false)
	ok, err := m.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMutex_UnlockWithoutLockIsNoop(t *testing.T) {
	client, _ := newMockClient(t)
	m := NewMutex(client, "dedup", time.Minute, logging.NewNopLogger())

	require.NoError(t, m.Unlock(context.Background()))
}
