package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ScenarioIQ/internal/application/dedup"
	"github.com/turtacn/ScenarioIQ/internal/application/recommend"
	apperrors "github.com/turtacn/ScenarioIQ/pkg/errors"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// JSONCodecName is the content-subtype the scenario service speaks.  Clients
// dial with grpc.CallContentSubtype(JSONCodecName).
const JSONCodecName = "json"

// ScenarioServiceName is the fully-qualified gRPC service name.
const ScenarioServiceName = "sceniq.v1.ScenarioService"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec lets the scenario service exchange the same request and response
// types as the HTTP API without a protobuf schema.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return JSONCodecName }

// RecommendReply is the Recommend RPC's response message.
type RecommendReply struct {
	Recommendations []rectypes.Recommendation `json:"recommendations"`
	Count           int                       `json:"count"`
}

// DetectDuplicatesReply is the DetectDuplicates RPC's response message.
type DetectDuplicatesReply struct {
	Groups []rectypes.DuplicateGroup `json:"groups"`
	Count  int                       `json:"count"`
}

// ScenarioService exposes recommendation and duplicate detection over gRPC,
// mirroring the HTTP API for callers that already speak gRPC in-fleet.
type ScenarioService struct {
	recommender recommend.Service
	detector    dedup.Service
}

// NewScenarioService constructs the gRPC-facing service.
func NewScenarioService(recommender recommend.Service, detector dedup.Service) *ScenarioService {
	return &ScenarioService{recommender: recommender, detector: detector}
}

// Recommend ranks the corpus against the query.
func (s *ScenarioService) Recommend(ctx context.Context, q *rectypes.Query) (*RecommendReply, error) {
	recs, err := s.recommender.Recommend(ctx, *q)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &RecommendReply{Recommendations: recs, Count: len(recs)}, nil
}

// DetectDuplicates groups near-duplicate scenarios.
func (s *ScenarioService) DetectDuplicates(ctx context.Context, req *rectypes.DedupRequest) (*DetectDuplicatesReply, error) {
	groups, err := s.detector.DetectDuplicates(ctx, *req)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &DetectDuplicatesReply{Groups: groups, Count: len(groups)}, nil
}

// toStatusError maps application errors onto gRPC status codes.  Server-side
// detail is masked the same way the HTTP layer masks it.
func toStatusError(err error) error {
	code := apperrors.GetCode(err)
	if apperrors.IsClientError(code) {
		grpcCode := codes.InvalidArgument
		if code == apperrors.ErrCodeScenarioNotFound {
			grpcCode = codes.NotFound
		}
		return status.Error(grpcCode, err.Error())
	}
	return status.Error(codes.Internal, apperrors.DefaultMessageForCode(code))
}

func recommendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(rectypes.Query)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*ScenarioService).Recommend(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ScenarioServiceName + "/Recommend"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*ScenarioService).Recommend(ctx, req.(*rectypes.Query))
	})
}

func detectDuplicatesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(rectypes.DedupRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*ScenarioService).DetectDuplicates(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ScenarioServiceName + "/DetectDuplicates"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*ScenarioService).DetectDuplicates(ctx, req.(*rectypes.DedupRequest))
	})
}

// ScenarioServiceDesc is the hand-written service descriptor.  The service
// carries plain JSON messages, so there is no generated protobuf stub to
// anchor the descriptor to.
var ScenarioServiceDesc = grpc.ServiceDesc{
	ServiceName: ScenarioServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Recommend", Handler: recommendHandler},
		{MethodName: "DetectDuplicates", Handler: detectDuplicatesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sceniq/v1/scenario_service",
}
