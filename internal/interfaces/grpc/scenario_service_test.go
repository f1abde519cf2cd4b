package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ScenarioIQ/pkg/errors"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

type fakeRecommender struct {
	recs []rectypes.Recommendation
	err  error
}

func (f *fakeRecommender) Recommend(_ context.Context, _ rectypes.Query) ([]rectypes.Recommendation, error) {
	return f.recs, f.err
}

func (f *fakeRecommender) RecordSelection(_ context.Context, _ string) error { return f.err }

type fakeDetector struct {
	groups []rectypes.DuplicateGroup
	err    error
}

func (f *fakeDetector) DetectDuplicates(_ context.Context, _ rectypes.DedupRequest) ([]rectypes.DuplicateGroup, error) {
	return f.groups, f.err
}

func (f *fakeDetector) FindSimilarPairs(_ context.Context, _ float64) ([]rectypes.SimilarPair, error) {
	return nil, f.err
}

func dialScenarioService(t *testing.T, rec *fakeRecommender, det *fakeDetector) *grpc.ClientConn {
	t.Helper()
	srv, err := NewServer(testServerConfig(), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	srv.RegisterService(&ScenarioServiceDesc, NewScenarioService(rec, det))

	go func() { _ = srv.Start() }()
	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn, err := grpc.Dial(srv.Addr(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(JSONCodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestScenarioService_Recommend(t *testing.T) {
	rec := &fakeRecommender{recs: []rectypes.Recommendation{
		{ScenarioID: "SCN-0001", Score: 0.91, Category: "safety"},
	}}
	conn := dialScenarioService(t, rec, &fakeDetector{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reply RecommendReply
	err := conn.Invoke(ctx, "/"+ScenarioServiceName+"/Recommend",
		&rectypes.Query{Platform: "EV", TopK: 5}, &reply)
	require.NoError(t, err)

	require.Equal(t, 1, reply.Count)
	assert.Equal(t, "SCN-0001", reply.Recommendations[0].ScenarioID)
	assert.Equal(t, "safety", reply.Recommendations[0].Category)
}

func TestScenarioService_RecommendInvalidQuery(t *testing.T) {
	rec := &fakeRecommender{err: apperrors.New(apperrors.ErrCodeRecommendInvalidQuery, "platform is required")}
	conn := dialScenarioService(t, rec, &fakeDetector{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reply RecommendReply
	err := conn.Invoke(ctx, "/"+ScenarioServiceName+"/Recommend", &rectypes.Query{}, &reply)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "platform is required")
}

func TestScenarioService_InternalErrorIsMasked(t *testing.T) {
	rec := &fakeRecommender{err: apperrors.Internal("pgx: connection refused at 10.0.0.3")}
	conn := dialScenarioService(t, rec, &fakeDetector{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reply RecommendReply
	err := conn.Invoke(ctx, "/"+ScenarioServiceName+"/Recommend",
		&rectypes.Query{Platform: "EV"}, &reply)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, status.Convert(err).Message(), "10.0.0.3")
}

func TestScenarioService_DetectDuplicates(t *testing.T) {
	det := &fakeDetector{groups: []rectypes.DuplicateGroup{{
		GroupID:          "dup-0a1b2c3d4e5f",
		MemberIDs:        []string{"SCN-0001", "SCN-0002"},
		RepresentativeID: "SCN-0002",
		MeanSimilarity:   0.94,
	}}}
	conn := dialScenarioService(t, &fakeRecommender{}, det)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reply DetectDuplicatesReply
	err := conn.Invoke(ctx, "/"+ScenarioServiceName+"/DetectDuplicates",
		&rectypes.DedupRequest{Threshold: 0.9}, &reply)
	require.NoError(t, err)

	require.Equal(t, 1, reply.Count)
	assert.Equal(t, "SCN-0002", reply.Groups[0].RepresentativeID)
}
