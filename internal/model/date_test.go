package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.March, 14)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-14"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)
}

func TestDate_UnmarshalNull(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestDate_UnmarshalRejectsBadFormat(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"14/03/2025"`), &d))
}

func TestDate_AddMonthsCrossesYear(t *testing.T) {
	d := NewDate(2024, time.November, 15)
	assert.Equal(t, NewDate(2025, time.May, 15), d.AddMonths(6))
	assert.Equal(t, NewDate(2026, time.November, 15), d.AddMonths(24))
}

func TestDate_DaysUntil(t *testing.T) {
	a := NewDate(2025, time.January, 1)
	b := NewDate(2025, time.January, 31)
	assert.Equal(t, 30, a.DaysUntil(b))
	assert.Equal(t, -30, b.DaysUntil(a))
}

func TestDate_ScanString(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-06-01T00:00:00Z"))
	assert.Equal(t, NewDate(2025, time.June, 1), d)
}
