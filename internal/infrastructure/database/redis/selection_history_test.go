package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
)

func TestSelectionHistory_Stats(t *testing.T) {
	client, mock := newMockClient(t)
	history := NewSelectionHistory(client, logging.NewNopLogger())

	mock.ExpectHGetAll("sceniq:hist:SCN-0001").SetVal(map[string]string{
		"offers":     "40",
		"selections": "12",
	})
	stats, err := history.Stats(context.Background(), "SCN-0001")
	require.NoError(t, err)
	assert.Equal(t, scenario.SelectionStats{Offers: 40, Selections: 12}, stats)
}

func TestSelectionHistory_StatsColdStart(t *testing.T) {
	client, mock := newMockClient(t)
	history := NewSelectionHistory(client, logging.NewNopLogger())

	mock.ExpectHGetAll("sceniq:hist:SCN-9999").SetVal(map[string]string{})
	stats, err := history.Stats(context.Background(), "SCN-9999")
	require.NoError(t, err)
	assert.Zero(t, stats.Offers)
	assert.Zero(t, stats.Selections)
}

func TestSelectionHistory_RecordOffer(t *testing.T) {
	client, mock := newMockClient(t)
	history := NewSelectionHistory(client, logging.NewNopLogger())

	mock.ExpectHIncrBy("sceniq:hist:SCN-0001", "offers", 1).SetVal(1)
	mock.ExpectHIncrBy("sceniq:hist:SCN-0002", "offers", 1).SetVal(5)
	require.NoError(t, history.RecordOffer(context.Background(), []string{"SCN-0001", "SCN-0002"}))

	// Empty input touches nothing.
	require.NoError(t, history.RecordOffer(context.Background(), nil))
}

func TestSelectionHistory_RecordSelection(t *testing.T) {
	client, mock := newMockClient(t)
	history := NewSelectionHistory(client, logging.NewNopLogger())

	mock.ExpectHIncrBy("sceniq:hist:SCN-0001", "selections", 1).SetVal(3)
	require.NoError(t, history.RecordSelection(context.Background(), "SCN-0001"))
}

func TestParseCounter(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 42, parseCounter("42"))
	assert.EqualValues(t, 0, parseCounter(""))
	assert.EqualValues(t, 0, parseCounter("junk"))
	assert.EqualValues(t, 0, parseCounter("-7"))
}
