// Package messaging defines the domain events emitted by the catalog and the publisher contract.
package messaging

import (
	"context"
)

const (
	// ProductsStream is the JetStream stream holding every catalog event.
	ProductsStream = "PRODUCTS"
	// ProductsSubjects is the subject filter bound to ProductsStream.
	ProductsSubjects = "products.>"

	ProductCreatedSubject = "products.created"
	ProductUpdatedSubject = "products.updated"
	ProductRemovedSubject = "products.removed"
	ProductDeletedSubject = "products.deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
