package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportService_TransitionTable(t *testing.T) {
	cases := []struct {
		from    TransportStatus
		to      TransportStatus
		allowed bool
	}{
		{TransportScheduled, TransportInTransit, true},
		{TransportScheduled, TransportCancelled, true},
		{TransportScheduled, TransportOnHold, true},
		{TransportScheduled, TransportDelivered, false},
		{TransportInTransit, TransportDelivered, true},
		{TransportInTransit, TransportCancelled, true},
		{TransportInTransit, TransportOnHold, true},
		{TransportInTransit, TransportScheduled, false},
		{TransportOnHold, TransportInTransit, true},
		{TransportOnHold, TransportCancelled, true},
		{TransportOnHold, TransportDelivered, false},
		{TransportDelivered, TransportInTransit, false},
		{TransportDelivered, TransportScheduled, false},
		{TransportCancelled, TransportInTransit, false},
		{TransportCancelled, TransportScheduled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTransportService_TransitionStampsTimestamps(t *testing.T) {
	now := time.Now()
	service := &TransportService{Status: TransportScheduled}

	require.NoError(t, service.TransitionTo(TransportInTransit, now))
	require.NotNil(t, service.ActualDeparture)
	assert.Equal(t, now, *service.ActualDeparture)
	assert.Nil(t, service.ActualArrival)

	arrival := now.Add(2 * time.Hour)
	require.NoError(t, service.TransitionTo(TransportDelivered, arrival))
	require.NotNil(t, service.ActualArrival)
	assert.Equal(t, arrival, *service.ActualArrival)
	assert.True(t, service.IsTerminal())
}

func TestTransportService_InvalidTransitionLeavesObjectUnchanged(t *testing.T) {
	service := &TransportService{Status: TransportDelivered}
	before := *service

	err := service.TransitionTo(TransportInTransit, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, *service)
}

func TestTransportService_ReenteringInTransitRestampsDeparture(t *testing.T) {
	first := time.Now()
	service := &TransportService{Status: TransportScheduled}
	require.NoError(t, service.TransitionTo(TransportInTransit, first))
	require.NoError(t, service.TransitionTo(TransportOnHold, first.Add(time.Minute)))

	second := first.Add(time.Hour)
	require.NoError(t, service.TransitionTo(TransportInTransit, second))
	assert.Equal(t, second, *service.ActualDeparture)
}
