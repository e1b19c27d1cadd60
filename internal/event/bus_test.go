package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()
	var calls []string
	bus.Subscribe(CustomerCreated, func(evt Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(CustomerCreated, func(evt Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Publish(Event{Type: CustomerCreated, Payload: "payload"})
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	reached := false
	bus.Subscribe(InvoiceSent, func(evt Event) error {
		return errors.New("smtp down")
	})
	bus.Subscribe(InvoiceSent, func(evt Event) error {
		reached = true
		return nil
	})

	bus.Publish(Event{Type: InvoiceSent})
	assert.True(t, reached)
}

func TestBus_UnsubscribedTypeIsNoop(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(UserCreated, func(evt Event) error {
		t.Fatal("handler for a different type must not run")
		return nil
	})
	bus.Publish(Event{Type: VisaStatusChanged})
}

func TestBus_PayloadReachesHandler(t *testing.T) {
	bus := NewBus()
	var got interface{}
	bus.Subscribe(TransportStatusChanged, func(evt Event) error {
		got = evt.Payload
		return nil
	})

	bus.Publish(Event{Type: TransportStatusChanged, Payload: 42})
	assert.Equal(t, 42, got)
}
