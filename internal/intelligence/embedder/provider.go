// Package embedder provides the embedding provider used by the
// recommendation engine and the duplicate detector.  A provider maps text to
// a fixed-dimension float32 vector; for any given input the output is
// deterministic for the lifetime of the process.
//
// The provider is a process-wide singleton: Init must be called exactly once
// during startup (an initialisation failure is fatal), after which Get is
// safe for unbounded concurrent use.
package embedder

import (
	"context"
	"sync"

	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// Provider is the embedding contract.  Implementations must be safe for
// concurrent use after construction and deterministic: equal input text
// yields an identical vector.
type Provider interface {
	// Embed maps text to a vector of exactly Dim() dimensions.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch maps each text to its vector, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the fixed output dimension.
	Dim() int
}

// BackendLocal is the built-in deterministic feature-hashing encoder.
const BackendLocal = "local"

var (
	initOnce sync.Once
	global   Provider
	initErr  error
)

// Init constructs the process-wide provider.  Only the first call has any
// effect; later calls return the outcome of the first.  On failure the
// process must not serve traffic: no silent fallback provider is installed.
func Init(backend string, dim int) error {
	initOnce.Do(func() {
		switch backend {
		case BackendLocal:
			cfg := NewLocalConfig(dim)
			if err := cfg.Validate(); err != nil {
				initErr = err
				return
			}
			global = NewLocalEncoder(cfg)
		default:
			initErr = errors.New(errors.ErrCodeEmbeddingInitFailed,
				"unsupported embedding backend").WithDetail("backend=" + backend)
		}
	})
	return initErr
}

// Get returns the initialised provider, or an ErrCodeEmbeddingInitFailed
// AppError when Init has not run or failed.
func Get() (Provider, error) {
	if initErr != nil {
		return nil, initErr
	}
	if global == nil {
		return nil, errors.New(errors.ErrCodeEmbeddingInitFailed,
			"embedding provider is not initialised; call embedder.Init during startup")
	}
	return global, nil
}
