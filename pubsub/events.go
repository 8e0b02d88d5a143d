package pubsub

import "context"

const (
	// DocumentIngestedEvent fires after a document and all of its chunks
	// are durably written.
	DocumentIngestedEvent EventType = "document_ingested"
	// DocumentDeletedEvent fires after a document and its chunks are removed.
	DocumentDeletedEvent EventType = "document_deleted"
	// TenantClearedEvent fires after a tenant's entire knowledge base is
	// cascaded away.
	TenantClearedEvent EventType = "tenant_cleared"

	// MessageCreatedEvent fires for each new message in an assistant
	// conversation.
	MessageCreatedEvent EventType = "message_created"
	// MessageUpdatedEvent fires for progress notes on an existing
	// conversation turn, such as tool invocations.
	MessageUpdatedEvent EventType = "message_updated"
)

// KnowledgeEvent is the payload for knowledge-base lifecycle events.
// Cache-invalidation listeners and the analytics layer subscribe to these.
type KnowledgeEvent struct {
	TenantID   string
	DocumentID string // empty for tenant-wide events
	Chunks     int    // chunks written, for ingest events
}

// Subscriber receives a read-only event channel that closes automatically
// when the context ends.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies the kind of lifecycle event.
	EventType string

	// Event is one occurrence in a resource's lifecycle.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher delivers an event to every subscriber.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
