package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestParseRunID(t *testing.T) {
	id := NewID()
	runID, err := ParseRunID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id.String(), runID.String())

	_, err = ParseRunID("")
	assert.Error(t, err)
	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

func TestErrorHelpers(t *testing.T) {
	err := NewUnsupportedTestKindError("type", "quantum", []string{"parametric", "p"})
	assert.True(t, IsUnsupportedTestKind(err))
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), `"quantum"`)
	assert.Contains(t, err.Error(), "accepted: parametric, p")

	err = NewInsufficientDataError("t-test", 2, 1)
	assert.True(t, IsInsufficientData(err))
	assert.False(t, IsValidationError(err))

	assert.True(t, IsMissingColumn(NewMissingColumnError("wt")))
	assert.True(t, errors.Is(ErrLengthMismatch, ErrInsufficientData))
	assert.True(t, IsNotFoundError(NewNotFoundError("run", "x")))
}
