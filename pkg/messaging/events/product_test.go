package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductEvent_Payload(t *testing.T) {
	// given
	occurred := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	event := ProductEvent{
		Carrier:    map[string]string{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		Kind:       messaging.ProductRemovedSubject,
		ProductID:  7,
		Name:       "Keyboard",
		Price:      49.5,
		Available:  false,
		OccurredAt: occurred,
	}

	// when
	data, err := event.Payload()

	// then
	require.NoError(t, err)
	assert.Equal(t, messaging.ProductRemovedSubject, event.Subject())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 7, decoded["product_id"])
	assert.Equal(t, false, decoded["available"])
	assert.NotContains(t, decoded, "Kind")
	assert.Contains(t, decoded, "carrier")
}
