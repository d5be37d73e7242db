package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type memStore struct {
	inserted []Event
	fail     bool
}

func (m *memStore) InsertEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (Event, error) {
	if m.fail {
		return Event{}, errors.New("boom")
	}
	ev := Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	m.inserted = append(m.inserted, ev)
	return ev, nil
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	id := uuid.New()
	ev, err := bus.Emit(context.Background(), TopicTicketClosed, id, map[string]any{"code": "C-001"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if ev.Topic != TopicTicketClosed {
		t.Fatalf("topic = %q", ev.Topic)
	}
	if len(store.inserted) != 1 || len(notifier.events) != 1 {
		t.Fatalf("expected 1 insert and 1 notify, got %d/%d", len(store.inserted), len(notifier.events))
	}
}

func TestEmitRejectsMissingFields(t *testing.T) {
	bus := &Bus{Store: &memStore{}}
	if _, err := bus.Emit(context.Background(), "", uuid.New(), nil); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if _, err := bus.Emit(context.Background(), TopicTicketClosed, uuid.Nil, nil); err == nil {
		t.Fatal("expected error for nil aggregate id")
	}
}

func TestEmitReportsNotifierFailureButKeepsEvent(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{err: errors.New("cache down")}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	_, err := bus.Emit(context.Background(), TopicTicketClosed, uuid.New(), nil)
	if err == nil {
		t.Fatal("expected joined notifier error")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("event should persist despite notifier failure, inserts = %d", len(store.inserted))
	}
}
