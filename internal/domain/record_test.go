package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, ValidateRecordID("1001"))
	assert.ErrorIs(t, ValidateRecordID(""), ErrInvalidRecordID)
	assert.ErrorIs(t, ValidateRecordID("   "), ErrInvalidRecordID)
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("bailiff")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRole))
	assert.Contains(t, err.Error(), "bailiff")
}
