package notifications

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/metrics"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/servicehub-backend/pkg/outbox/registry"
)

// Handler delivers decoded outbox payloads by email.
type Handler struct {
	mailer  Mailer
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
}

func NewHandler(mailer Mailer, logg *logger.Logger, domainMetrics *metrics.DomainMetrics) (*Handler, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handler{mailer: mailer, logg: logg, metrics: domainMetrics}, nil
}

// Handle renders and sends every message for payload. Payloads it cannot
// render are reported as non-retryable.
func (h *Handler) Handle(ctx context.Context, payload any) error {
	var (
		kind     string
		messages []Message
	)
	switch p := payload.(type) {
	case *payloads.NotificationRequestedEvent:
		rendered, err := RenderBooking(*p)
		if err != nil {
			return registry.NewNonRetryableError(err)
		}
		kind, messages = string(p.Kind), rendered
	case *payloads.RewardRedeemedEvent:
		kind, messages = "reward_redeemed", RenderRedemption(*p)
	default:
		return registry.NewNonRetryableError(fmt.Errorf("unsupported payload %T", payload))
	}

	var errs error
	for _, msg := range messages {
		if msg.To == "" {
			h.logg.Warn(h.logg.WithField(ctx, "kind", kind), "skipping notification without recipient")
			continue
		}
		err := h.mailer.Send(ctx, msg)
		h.metrics.NotificationDelivered(kind, err == nil)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("send to %s: %w", msg.To, err))
		}
	}
	return errs
}
