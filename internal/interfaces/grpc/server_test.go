package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ScenarioIQ/internal/config"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
)

func testServerConfig() config.GRPCConfig {
	// Port 0 lets the OS pick a free port.
	return config.GRPCConfig{Host: "127.0.0.1", Port: 0}
}

func TestNewServer_BindsListener(t *testing.T) {
	srv, err := NewServer(testServerConfig())
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	assert.NotEmpty(t, srv.Addr())
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())
}

func TestServer_HealthCheck(t *testing.T) {
	srv, err := NewServer(testServerConfig(), WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	conn, err := grpc.Dial(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_DoubleStart(t *testing.T) {
	srv, err := NewServer(testServerConfig())
	require.NoError(t, err)

	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Error(t, srv.Start())
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv, err := NewServer(testServerConfig())
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestRecoveryInterceptor_ConvertsPanic(t *testing.T) {
	interceptor := recoveryUnaryInterceptor(logging.NewNopLogger())

	_, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/sceniq.v1.Recommend/Rank"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			panic("boom")
		})

	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestRecoveryInterceptor_PassesThrough(t *testing.T) {
	interceptor := recoveryUnaryInterceptor(logging.NewNopLogger())

	resp, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/sceniq.v1.Recommend/Rank"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

type validatingRequest struct {
	err error
}

func (r validatingRequest) Validate() error { return r.err }

func TestValidationInterceptor(t *testing.T) {
	interceptor := validationUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/sceniq.v1.Recommend/Rank"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "handled", nil
	}

	resp, err := interceptor(context.Background(), validatingRequest{}, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "handled", resp)

	_, err = interceptor(context.Background(), validatingRequest{err: errors.New("bad field")}, info, handler)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// Requests without a Validate method pass straight through.
	resp, err = interceptor(context.Background(), "plain", info, handler)
	require.NoError(t, err)
	assert.Equal(t, "handled", resp)
}

func TestChainUnaryInterceptors_Order(t *testing.T) {
	var order []string
	mk := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			order = append(order, name)
			return handler(ctx, req)
		}
	}

	chain := chainUnaryInterceptors(mk("outer"), mk("middle"), mk("inner"))
	_, err := chain(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			order = append(order, "handler")
			return nil, nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "middle", "inner", "handler"}, order)
}

func TestSplitMethodName(t *testing.T) {
	service, method := splitMethodName("/sceniq.v1.Recommend/Rank")
	assert.Equal(t, "sceniq.v1.Recommend", service)
	assert.Equal(t, "Rank", method)

	service, method = splitMethodName("malformed")
	assert.Equal(t, "unknown", service)
	assert.Equal(t, "malformed", method)
}
