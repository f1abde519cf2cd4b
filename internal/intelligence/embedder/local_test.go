package embedder

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
)

func newEncoder(t *testing.T, dim int) *LocalEncoder {
	t.Helper()
	cfg := NewLocalConfig(dim)
	require.NoError(t, cfg.Validate())
	return NewLocalEncoder(cfg)
}

func TestLocalEncoder_Deterministic(t *testing.T) {
	e := newEncoder(t, 128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "HV battery thermal runaway containment test")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "HV battery thermal runaway containment test")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestLocalEncoder_UnitNorm(t *testing.T) {
	e := newEncoder(t, 64)
	v, err := e.Embed(context.Background(), "regenerative braking blend transition")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectormath.Norm(v), 1e-5)
}

func TestLocalEncoder_SimilarTextScoresHigher(t *testing.T) {
	e := newEncoder(t, 256)
	ctx := context.Background()

	base, err := e.Embed(ctx, "battery cell thermal runaway propagation test")
	require.NoError(t, err)
	near, err := e.Embed(ctx, "battery pack thermal runaway propagation check")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "lane keeping assist camera obstruction")
	require.NoError(t, err)

	simNear, err := vectormath.Cosine(base, near)
	require.NoError(t, err)
	simFar, err := vectormath.Cosine(base, far)
	require.NoError(t, err)

	assert.Greater(t, simNear, simFar)
}

func TestLocalEncoder_EmptyTextRejected(t *testing.T) {
	e := newEncoder(t, 64)

	for _, text := range []string{"", "   ", "\t\n", "!!! ---"} {
		_, err := e.Embed(context.Background(), text)
		require.Error(t, err, "text %q", text)
		assert.True(t, errors.IsCode(err, errors.ErrCodeEmbeddingInputEmpty))
	}
}

func TestLocalEncoder_CancelledContext(t *testing.T) {
	e := newEncoder(t, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, "some text")
	assert.Error(t, err)
}

func TestLocalEncoder_EmbedBatch(t *testing.T) {
	e := newEncoder(t, 64)
	ctx := context.Background()

	vecs, err := e.EmbedBatch(ctx, []string{"first scenario", "second scenario"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := e.Embed(ctx, "first scenario")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])

	_, err = e.EmbedBatch(ctx, []string{"fine", ""})
	assert.Error(t, err, "batch with an empty entry must fail whole")
}

func TestLocalEncoder_ConcurrentUse(t *testing.T) {
	e := newEncoder(t, 128)
	ctx := context.Background()

	want, err := e.Embed(ctx, "steady state highway cruise")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Embed(ctx, "steady state highway cruise")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestLocalConfig_Validate(t *testing.T) {
	assert.NoError(t, NewLocalConfig(384).Validate())
	assert.Error(t, NewLocalConfig(4).Validate())

	cfg := NewLocalConfig(64)
	cfg.NgramMax = 0
	assert.Error(t, cfg.Validate())
}
