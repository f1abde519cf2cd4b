package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestID_Validate_ValidUUID(t *testing.T) {
	id := ID("550e8400-e29b-41d4-a716-446655440000")
	assert.NoError(t, id.Validate())
}

func TestID_Validate_EmptyString(t *testing.T) {
	err := ID("").Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestID_Validate_InvalidFormat(t *testing.T) {
	err := ID("not-a-uuid").Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID format")
}

func TestNewID_GeneratesValidUUID(t *testing.T) {
	assert.NoError(t, NewID().Validate())
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewBaseEvent("SCN-0001")

	assert.NoError(t, ID(e.EventID()).Validate())
	assert.Equal(t, "SCN-0001", e.AggregateID())
	assert.False(t, e.OccurredAt().Before(before))
}
