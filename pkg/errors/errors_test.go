// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.ErrCodeInternal, "unexpected failure"},
		{"scenario not found", errors.ErrCodeScenarioNotFound, "scenario SCN-0042 not found"},
		{"invalid query", errors.ErrCodeRecommendInvalidQuery, "platform must not be empty"},
		{"embedding init", errors.ErrCodeEmbeddingInitFailed, "model weights missing"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestError_FormatIncludesCodeAndDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeScenarioNotFound, "scenario not found").
		WithDetail("id=SCN-0042")

	msg := ae.Error()
	assert.True(t, strings.HasPrefix(msg, "[SCN_001]"), "got %q", msg)
	assert.Contains(t, msg, "scenario not found")
	assert.Contains(t, msg, "id=SCN-0042")
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.ErrCodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("root DB error")
	wrapped := errors.Wrap(root, errors.ErrCodeDatabaseError, "connection failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeDatabaseError, wrapped.Code)
	assert.Equal(t, "connection failed", wrapped.Message)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeScenarioNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeScenarioNotFound, outer.Code,
		"Wrap with CodeUnknown should inherit the inner AppError's code")
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeScenarioNotFound, "not found")
	outer := errors.Wrap(inner, errors.ErrCodeInternal, "unexpected state")

	assert.Equal(t, errors.ErrCodeInternal, outer.Code,
		"explicit non-Unknown code must override the inner code")
}

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeGraphUnavailable, "neo4j down")
	outer := errors.Wrap(inner, errors.ErrCodeRecommendFailed, "signal degraded")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeGraphUnavailable))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeRecommendFailed))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeDedupFailed))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("gone")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeScenarioNotFound, "gone")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCacheError,
		errors.GetCode(errors.New(errors.ErrCodeCacheError, "miss")))
}

func TestWithDetail_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("anything"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}
