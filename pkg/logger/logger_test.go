package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestContextHandler_Handle(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	testCases := []struct {
		name        string
		ctx         context.Context
		expectAttrs map[string]string
		absentAttrs []string
	}{
		{
			name:        "plain context",
			ctx:         context.Background(),
			absentAttrs: []string{"trace_id", "request_id"},
		},
		{
			name: "request id only",
			ctx:  web.WithRequestID(context.Background(), "req-1"),
			expectAttrs: map[string]string{
				"request_id": "req-1",
			},
			absentAttrs: []string{"trace_id"},
		},
		{
			name: "span and request id",
			ctx:  trace.ContextWithSpanContext(web.WithRequestID(context.Background(), "req-2"), spanCtx),
			expectAttrs: map[string]string{
				"request_id": "req-2",
				"trace_id":   traceID.String(),
				"span_id":    spanID.String(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

			// when
			log.InfoContext(tc.ctx, "hello")

			// then
			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, "test", record["component"])
			for key, value := range tc.expectAttrs {
				assert.Equal(t, value, record[key], key)
			}
			for _, key := range tc.absentAttrs {
				assert.NotContains(t, record, key)
			}
		})
	}
}
