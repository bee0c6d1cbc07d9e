package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event type names published by the core. The presentation layer subscribes
// to these instead of the core knowing anything about navigation.
const (
	EventSessionAuthenticated = "session.authenticated"
	EventSessionInvalidated   = "session.invalidated"
	EventSessionLoggedOut     = "session.logged_out"
	EventCartMerged           = "cart.merged"
)

// Event represents something that happened inside the core.
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// SessionAuthenticatedEvent is published after a successful login,
// registration-login, or session restore.
type SessionAuthenticatedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// NewSessionAuthenticatedEvent creates a new session authenticated event
func NewSessionAuthenticatedEvent(userID int64, email string) SessionAuthenticatedEvent {
	return SessionAuthenticatedEvent{
		BaseEvent: NewBaseEvent(EventSessionAuthenticated),
		UserID:    userID,
		Email:     email,
	}
}

// SessionInvalidatedEvent is published when stored credentials turn out to
// be irrecoverably expired or rejected. Subscribers are expected to send
// the user back to the login entry point.
type SessionInvalidatedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewSessionInvalidatedEvent creates a new session invalidated event
func NewSessionInvalidatedEvent(reason string) SessionInvalidatedEvent {
	return SessionInvalidatedEvent{
		BaseEvent: NewBaseEvent(EventSessionInvalidated),
		Reason:    reason,
	}
}

// SessionLoggedOutEvent is published after an explicit logout completes.
type SessionLoggedOutEvent struct {
	BaseEvent
}

// NewSessionLoggedOutEvent creates a new logged out event
func NewSessionLoggedOutEvent() SessionLoggedOutEvent {
	return SessionLoggedOutEvent{BaseEvent: NewBaseEvent(EventSessionLoggedOut)}
}

// CartMergedEvent is published when an anonymous cart has been merged into
// the authenticated user's cart.
type CartMergedEvent struct {
	BaseEvent
	CartID    int64 `json:"cart_id"`
	ItemCount int   `json:"item_count"`
}

// NewCartMergedEvent creates a new cart merged event
func NewCartMergedEvent(cartID int64, itemCount int) CartMergedEvent {
	return CartMergedEvent{
		BaseEvent: NewBaseEvent(EventCartMerged),
		CartID:    cartID,
		ItemCount: itemCount,
	}
}

// EventHandler processes core events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if handlers, ok := d.handlers[event.EventType()]; ok {
		for _, h := range handlers {
			h(event)
		}
	}

	for _, h := range d.allHandlers {
		h(event)
	}
}
