package producers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/Nazarious-ucu/notification-preferences/pkg/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"
)

type publisher interface {
	PublishWithContext(
		ctx context.Context,
		data []byte,
		routingKeys []string,
		optionFuncs ...func(*rabbitmq.PublishOptions),
	) error
}

// Producer publishes analytics and due-notification events to the notifications exchange.
type Producer struct {
	prod publisher
	log  zerolog.Logger
	m    *metrics.Metrics
	now  func() time.Time
}

func NewProducer(prod publisher, logger zerolog.Logger, m *metrics.Metrics) *Producer {
	logger = logger.With().Str("component", "Producer").Logger()
	return &Producer{
		prod: prod,
		log:  logger,
		m:    m,
		now:  time.Now,
	}
}

func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	err := p.prod.PublishWithContext(
		ctx,
		body,
		[]string{routingKey},
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsMandatory,
		rabbitmq.WithPublishOptionsPersistentDelivery,
		rabbitmq.WithPublishOptionsExchange(messaging.ExchangeName),
	)
	p.m.RecordRabbitPublish(routingKey, err)
	if err != nil {
		p.log.Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish message")
		return err
	}
	p.log.Debug().Str("routing_key", routingKey).Msg("message published")
	return nil
}

// Emit publishes one analytics event. extra is already serialized JSON.
func (p *Producer) Emit(ctx context.Context, userID, eventName, extra string) error {
	event := messaging.AnalyticsEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		EventName:  eventName,
		Extra:      extra,
		OccurredAt: p.now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("event", eventName).Msg("failed to marshal analytics event")
		return err
	}

	return p.Publish(ctx, messaging.AnalyticsRoutingKey, body)
}

// PublishDue hands a due digest or reading reminder to delivery.
func (p *Producer) PublishDue(ctx context.Context, sd models.ScheduledDigest, scheduledFor time.Time) error {
	event := messaging.DigestDueEvent{
		ID:            uuid.NewString(),
		UserID:        sd.UserID,
		Email:         sd.Email,
		Type:          string(sd.Type),
		SendType:      string(sd.SendType),
		PreferredHour: sd.PreferredHour,
		Timezone:      sd.Timezone,
		ScheduledFor:  scheduledFor.UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("user_id", sd.UserID).Msg("failed to marshal due event")
		return err
	}

	routingKey := messaging.DigestRoutingKey
	if sd.Type == models.DigestTypeReadingReminder {
		routingKey = messaging.ReadingReminderRoutingKey
	}
	return p.Publish(ctx, routingKey, body)
}
