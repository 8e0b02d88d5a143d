package pubsub

import (
	"context"
	"testing"
	"time"
)

func TestBrokerDeliversKnowledgeEvents(t *testing.T) {
	broker := NewBroker[KnowledgeEvent]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)

	received := make(chan KnowledgeEvent, 1)
	go func() {
		for event := range events {
			if event.Type == DocumentIngestedEvent {
				received <- event.Payload
			}
		}
	}()

	broker.Publish(DocumentIngestedEvent, KnowledgeEvent{
		TenantID:   "t1",
		DocumentID: "doc-1",
		Chunks:     3,
	})

	select {
	case payload := <-received:
		if payload.TenantID != "t1" || payload.DocumentID != "doc-1" || payload.Chunks != 3 {
			t.Errorf("unexpected payload: %+v", payload)
		}
	case <-time.After(1 * time.Second):
		t.Error("timed out waiting for event")
	}
}

func TestBrokerAutoUnsubscribe(t *testing.T) {
	broker := NewBroker[KnowledgeEvent]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())

	_ = broker.Subscribe(ctx)
	if broker.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", broker.SubscriberCount())
	}

	cancel()

	// Give the cleanup goroutine a moment to run
	time.Sleep(10 * time.Millisecond)

	if broker.SubscriberCount() != 0 {
		t.Errorf("subscriber not cleaned up after context cancel, count: %d", broker.SubscriberCount())
	}
}

func TestBrokerNonBlockingPublish(t *testing.T) {
	broker := NewBroker[KnowledgeEvent]()
	defer broker.Shutdown()

	// Subscriber that never drains its channel
	_ = broker.Subscribe(context.Background())

	// Publish more events than the channel buffer holds; this must not block
	for i := 0; i < 100; i++ {
		broker.Publish(DocumentIngestedEvent, KnowledgeEvent{TenantID: "t1"})
	}
}

func TestBrokerShutdownClosesSubscribers(t *testing.T) {
	broker := NewBroker[KnowledgeEvent]()

	events := broker.Subscribe(context.Background())
	broker.Shutdown()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("subscriber channel still open after shutdown")
		}
	case <-time.After(1 * time.Second):
		t.Error("timed out waiting for channel close after shutdown")
	}
}
