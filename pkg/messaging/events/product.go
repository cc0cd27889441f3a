// Package events contains the catalog event payloads.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/productcatalog/pkg/messaging"
)

// ProductEvent is published after a successful write on a product.
// Carrier holds the W3C trace context of the command that produced it.
type ProductEvent struct {
	Carrier    map[string]string `json:"carrier,omitempty"`
	Kind       string            `json:"-"`
	ProductID  int64             `json:"product_id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	Available  bool              `json:"available"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	return e.Kind
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

var _ messaging.Event = ProductEvent{}
