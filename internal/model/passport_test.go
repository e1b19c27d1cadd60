package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassportExtension_Complete(t *testing.T) {
	passport := &Passport{
		Status:     PassportInProcess,
		ExpiryDate: NewDate(2024, time.December, 1),
	}
	extension := &PassportExtension{Duration: 6}

	released := NewDate(2025, time.January, 10)
	require.NoError(t, extension.Complete(passport, released))

	assert.Equal(t, PassportValid, passport.Status)
	assert.Equal(t, NewDate(2025, time.July, 10), passport.ExpiryDate)
	require.NotNil(t, extension.ReleasedDate)
	assert.Equal(t, released, *extension.ReleasedDate)
	assert.True(t, extension.IsCompleted())
}

func TestPassportExtension_CompleteIsOneWay(t *testing.T) {
	passport := &Passport{Status: PassportInProcess}
	extension := &PassportExtension{Duration: 6}
	require.NoError(t, extension.Complete(passport, NewDate(2025, time.January, 10)))

	err := extension.Complete(passport, NewDate(2025, time.February, 1))
	assert.ErrorIs(t, err, ErrExtensionCompleted)
	assert.Equal(t, NewDate(2025, time.January, 10), *extension.ReleasedDate)
}

func TestValidDuration(t *testing.T) {
	for _, months := range ValidDurations {
		assert.True(t, ValidDuration(months))
	}
	assert.False(t, ValidDuration(0))
	assert.False(t, ValidDuration(2))
	assert.False(t, ValidDuration(36))
}

func TestPassport_IsExpired(t *testing.T) {
	passport := Passport{ExpiryDate: NewDate(2025, time.June, 1)}
	assert.False(t, passport.IsExpired(NewDate(2025, time.May, 31)))
	assert.False(t, passport.IsExpired(NewDate(2025, time.June, 1)))
	assert.True(t, passport.IsExpired(NewDate(2025, time.June, 2)))
}
