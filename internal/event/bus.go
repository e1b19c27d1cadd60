// Package event carries domain events between the CRUD layer and the
// side-effect handlers. Events are published after the surrounding
// transaction has committed; handler failures are logged and swallowed so a
// broken side effect can never undo a committed write.
package event

import (
	"sync"

	"datapro-service/pkg/logger"

	"go.uber.org/zap"
)

// Type names a domain event
type Type string

const (
	CustomerCreated        Type = "customer.created"
	UserCreated            Type = "user.created"
	VisaStatusChanged      Type = "visa.status_changed"
	TransportStatusChanged Type = "transport.status_changed"
	InvoiceSent            Type = "invoice.sent"
	InvoicePaid            Type = "invoice.paid"
	ExtensionCompleted     Type = "passport_extension.completed"
)

// Event is a domain occurrence with its subject attached
type Event struct {
	Type    Type
	Payload interface{}
}

// Handler consumes one event. Returning an error only produces a log line.
type Handler func(evt Event) error

// Bus is a synchronous in-process dispatcher
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish dispatches the event to every subscribed handler in order
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(evt); err != nil {
			logger.GetLogger().Warn("event handler failed",
				zap.String("event", string(evt.Type)),
				zap.Error(err))
		}
	}
}

// Default is the bus the service wires its handlers onto at boot
var Default = NewBus()

// Publish dispatches on the default bus
func Publish(t Type, payload interface{}) {
	Default.Publish(Event{Type: t, Payload: payload})
}

// Subscribe registers on the default bus
func Subscribe(t Type, h Handler) {
	Default.Subscribe(t, h)
}
