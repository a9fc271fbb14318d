package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/model"
)

const (
	handoffAcceptedMetric = "checkout.handoff.accepted"
	handoffStaleMetric    = "checkout.handoff.stale"
	handoffInvalidMetric  = "checkout.handoff.invalid"
)

type Metrics interface {
	Increment(name string)
}

// Handler audits handoffs read back from the checkout topic. A handoff that is
// consumed after its window closed is reported as stale; the cart service must
// refuse it.
type Handler struct {
	metrics Metrics
	now     func() time.Time
}

func New(metrics Metrics) *Handler {
	return &Handler{metrics: metrics, now: time.Now}
}

func (h *Handler) Handle(ctx context.Context, in []byte) error {
	logger := logger_lib.FromContext(ctx, config.KeyLogger)
	logger.AddFuncName("Handle")

	var handoff model.CheckoutHandoff
	if err := json.Unmarshal(in, &handoff); err != nil {
		h.metrics.Increment(handoffInvalidMetric)
		logger.Error(fmt.Sprintf("failed to decode checkout handoff: %v", err))
		return nil
	}

	if handoff.NegotiationID == "" || handoff.BuyerID == "" || handoff.ExpiresAt.IsZero() {
		h.metrics.Increment(handoffInvalidMetric)
		logger.Warn(fmt.Sprintf("incomplete checkout handoff for negotiation %q", handoff.NegotiationID))
		return nil
	}

	if !h.now().Before(handoff.ExpiresAt) {
		h.metrics.Increment(handoffStaleMetric)
		logger.Warn(fmt.Sprintf("checkout handoff for negotiation %s consumed after expiry at %s", handoff.NegotiationID, handoff.ExpiresAt.Format(time.RFC3339)))
		return nil
	}

	h.metrics.Increment(handoffAcceptedMetric)
	logger.Info(fmt.Sprintf("checkout handoff for negotiation %s: %.2f kg at %.2f", handoff.NegotiationID, handoff.Quantity, handoff.Price))

	return nil
}
