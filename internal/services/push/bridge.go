package push

import (
	"context"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/rs/zerolog"
)

type subscriptionStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Save(ctx context.Context, sub models.PushSubscription) error
	Delete(ctx context.Context, userID string) error
}

// Bridge is the server side of the browser push permission flow.
// Enabling needs the keys the browser produced after the user granted permission;
// without them the request counts as denied.
type Bridge struct {
	store subscriptionStore
	log   zerolog.Logger
	m     *metrics.Metrics
}

func NewBridge(store subscriptionStore, logger zerolog.Logger, m *metrics.Metrics) *Bridge {
	logger = logger.With().Str("component", "PushBridge").Logger()
	return &Bridge{store: store, log: logger, m: m}
}

func (b *Bridge) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	return b.store.Exists(ctx, userID)
}

func (b *Bridge) RequestToggle(ctx context.Context, req models.PushRequest) (models.PushOutcome, error) {
	outcome, err := b.toggle(ctx, req)
	if err != nil {
		return outcome, err
	}
	b.m.PushOutcomes.WithLabelValues(string(outcome)).Inc()
	b.log.Info().Ctx(ctx).
		Str("user_id", req.UserID).
		Str("source", req.Source).
		Bool("enable", req.Enable).
		Str("outcome", string(outcome)).
		Msg("push permission request handled")
	return outcome, nil
}

func (b *Bridge) toggle(ctx context.Context, req models.PushRequest) (models.PushOutcome, error) {
	if !req.Supported {
		return models.PushUnsupported, nil
	}

	if !req.Enable {
		if err := b.store.Delete(ctx, req.UserID); err != nil {
			return models.PushDenied, err
		}
		return models.PushGranted, nil
	}

	if !req.Keys.Complete() {
		return models.PushDenied, nil
	}
	err := b.store.Save(ctx, models.PushSubscription{
		UserID:   req.UserID,
		Endpoint: req.Keys.Endpoint,
		P256DH:   req.Keys.P256DH,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		return models.PushDenied, err
	}
	return models.PushGranted, nil
}
