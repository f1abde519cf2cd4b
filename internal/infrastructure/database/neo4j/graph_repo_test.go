package neo4j

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

type fakeResult struct {
	records []*neo4j.Record
	pos     int
	err     error
}

func (f *fakeResult) Next(_ context.Context) bool {
	if f.pos >= len(f.records) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeResult) Record() *neo4j.Record { return f.records[f.pos-1] }
func (f *fakeResult) Err() error            { return f.err }

type fakeTx struct {
	result    *fakeResult
	runErr    error
	gotCypher string
	gotParams map[string]any
}

func (f *fakeTx) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	f.gotCypher = cypher
	f.gotParams = params
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.result, nil
}

type fakeRunner struct {
	tx  *fakeTx
	err error
}

func (f *fakeRunner) ExecuteRead(_ context.Context, work func(Transaction) (any, error)) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	out, err := work(f.tx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphQueryFailed, "neo4j read failed")
	}
	return out, nil
}

func record(id string, hops int64) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"scenario_id", "hops"},
		Values: []any{id, hops},
	}
}

func TestRelatedScenarios_MapsRecords(t *testing.T) {
	tx := &fakeTx{result: &fakeResult{records: []*neo4j.Record{
		record("SCN-0001", 1),
		record("SCN-0007", 2),
	}}}
	repo := NewGraphRepository(&fakeRunner{tx: tx}, logging.NewNopLogger())

	got, err := repo.RelatedScenarios(context.Background(), []string{"HV_Battery", "Battery"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []scenario.GraphNeighbor{
		{ScenarioID: "SCN-0001", Hops: 1},
		{ScenarioID: "SCN-0007", Hops: 2},
	}, got)

	assert.Contains(t, tx.gotCypher, "[*1..2]")
	assert.Equal(t, []string{"HV_Battery", "Battery"}, tx.gotParams["seeds"])
}

func TestRelatedScenarios_EmptySeedsSkipsQuery(t *testing.T) {
	repo := NewGraphRepository(&fakeRunner{err: errors.Internal("must not be called")}, logging.NewNopLogger())

	got, err := repo.RelatedScenarios(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRelatedScenarios_QueryFailure(t *testing.T) {
	tx := &fakeTx{runErr: errors.New(errors.ErrCodeGraphQueryFailed, "syntax error")}
	repo := NewGraphRepository(&fakeRunner{tx: tx}, logging.NewNopLogger())

	_, err := repo.RelatedScenarios(context.Background(), []string{"Battery"}, 2)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGraphQueryFailed))
}

func TestRelatedScenarios_MalformedRecord(t *testing.T) {
	tx := &fakeTx{result: &fakeResult{records: []*neo4j.Record{
		{Keys: []string{"scenario_id", "hops"}, Values: []any{42, int64(1)}},
	}}}
	repo := NewGraphRepository(&fakeRunner{tx: tx}, logging.NewNopLogger())

	_, err := repo.RelatedScenarios(context.Background(), []string{"Battery"}, 2)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGraphQueryFailed))
}
