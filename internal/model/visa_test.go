package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisa_DeriveTotalCost(t *testing.T) {
	visa := Visa{UnitCost: 100.10, ServiceFee: 25.15}
	visa.Derive(NewDate(2025, time.January, 1))
	assert.Equal(t, 125.25, visa.TotalCost)
}

func TestVisa_DeriveReleasedBeatsExpired(t *testing.T) {
	released := NewDate(2024, time.June, 1)
	visa := Visa{
		Status:       VisaApproved,
		ExpiryDate:   NewDate(2024, time.December, 31),
		ReleasedDate: &released,
	}
	visa.Derive(NewDate(2025, time.June, 1))
	assert.Equal(t, VisaReleased, visa.Status)
}

func TestVisa_DerivePastExpiryForcesExpired(t *testing.T) {
	visa := Visa{
		Status:     VisaIssued,
		ExpiryDate: NewDate(2024, time.December, 31),
	}
	visa.Derive(NewDate(2025, time.January, 1))
	assert.Equal(t, VisaExpired, visa.Status)
}

func TestVisa_DeriveIsIdempotent(t *testing.T) {
	today := NewDate(2025, time.March, 1)
	visa := Visa{
		Status:     VisaIssued,
		UnitCost:   50,
		ServiceFee: 5,
		ExpiryDate: NewDate(2025, time.January, 1),
	}

	visa.Derive(today)
	first := visa
	visa.Derive(today)
	assert.Equal(t, first, visa)
}

func TestVisa_DeriveKeepsFutureExpiryStatus(t *testing.T) {
	visa := Visa{
		Status:     VisaProcessing,
		ExpiryDate: NewDate(2026, time.January, 1),
	}
	visa.Derive(NewDate(2025, time.June, 1))
	assert.Equal(t, VisaProcessing, visa.Status)
}
