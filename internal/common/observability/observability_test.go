package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopObservability(t *testing.T) {
	o := NewNoop()

	ctx, span := o.StartSpan(context.Background(), "generate", attribute.String("flow", "generate"))
	assert.NotNil(t, ctx)
	span.End()

	assert.NotPanics(t, func() {
		o.RecordFlow(ctx, "generate", "success", 5*time.Millisecond)
		o.Shutdown()
	})
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability

	assert.NotPanics(t, func() {
		_, span := o.StartSpan(context.Background(), "authorize")
		span.End()
		o.RecordFlow(context.Background(), "authorize", "failed", time.Millisecond)
		o.Shutdown()
	})
}
