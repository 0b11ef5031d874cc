package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", got)

	for _, bad := range []string{"", "06/01/2025", "2025-13-01", "June 1st"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrValidation, "input %q", bad)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:00")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got)

	// Seconds are tolerated and truncated.
	got, err = ParseTimeOfDay("09:00:00")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got)

	for _, bad := range []string{"", "9am", "25:00", "09-00"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrValidation, "input %q", bad)
	}
}

func TestSlotKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "11111111-2222-3333-4444-555555555555:2025-06-01:09:00", SlotKey(id, "2025-06-01", "09:00"))
}

func TestConsultationModeValid(t *testing.T) {
	assert.True(t, ModeInPerson.Valid())
	assert.True(t, ModeVideo.Valid())
	assert.False(t, ConsultationMode("phone").Valid())
	assert.False(t, ConsultationMode("").Valid())
}
