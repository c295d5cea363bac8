package order

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Best-effort steps of ingestion. Their failures are reported, never returned.
const (
	EffectCustomerAttribute = "customer_attribute"
	EffectOrderNote         = "order_note"
	EffectActivityLog       = "activity_log"
	EffectOrderPlacedEvent  = "order_placed_event"
)

// SideEffectReporter receives failures of best-effort steps.
type SideEffectReporter interface {
	Report(ctx context.Context, effect string, err error)
}

// LogReporter writes best-effort failures to the context logger.
type LogReporter struct{}

func (LogReporter) Report(ctx context.Context, effect string, err error) {
	zctx.From(ctx).Warn("Best-effort step failed",
		zap.String("effect", effect),
		zap.Error(err),
	)
}
