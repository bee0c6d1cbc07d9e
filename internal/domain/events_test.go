package domain

import "testing"

func TestEventDispatcher_Subscribe(t *testing.T) {
	d := NewEventDispatcher()

	var invalidated, all int
	d.Subscribe(EventSessionInvalidated, func(Event) { invalidated++ })
	d.SubscribeAll(func(Event) { all++ })

	d.Publish(NewSessionInvalidatedEvent("token refresh failed"))
	d.Publish(NewSessionLoggedOutEvent())

	if invalidated != 1 {
		t.Errorf("typed handler calls = %d, want 1", invalidated)
	}
	if all != 2 {
		t.Errorf("all-handler calls = %d, want 2", all)
	}
}

func TestEvents_CarryMetadata(t *testing.T) {
	e := NewCartMergedEvent(11, 3)

	if e.EventType() != EventCartMerged {
		t.Errorf("EventType() = %q, want %q", e.EventType(), EventCartMerged)
	}
	if e.EventID().String() == "" {
		t.Error("EventID() is empty")
	}
	if e.OccurredAt().IsZero() {
		t.Error("OccurredAt() is zero")
	}
	if e.CartID != 11 || e.ItemCount != 3 {
		t.Errorf("payload = (%d, %d), want (11, 3)", e.CartID, e.ItemCount)
	}
}
