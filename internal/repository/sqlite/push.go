package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/rs/zerolog"
)

// PushRepository keeps at most one browser push subscription per user.
type PushRepository struct {
	DB  *sql.DB
	log zerolog.Logger
	m   *metrics.Metrics
}

func NewPushRepository(db *sql.DB, logger zerolog.Logger, m *metrics.Metrics) *PushRepository {
	logger = logger.With().Str("component", "PushRepository").Logger()
	return &PushRepository{DB: db, log: logger, m: m}
}

func (r *PushRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var cnt int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM push_subscriptions WHERE user_id = ?`, userID,
	).Scan(&cnt)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to query push subscription")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return false, err
	}
	return cnt > 0, nil
}

func (r *PushRepository) Save(ctx context.Context, sub models.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			endpoint = excluded.endpoint,
			p256dh   = excluded.p256dh,
			auth     = excluded.auth`,
		sub.UserID, sub.Endpoint, sub.P256DH, sub.Auth, sub.CreatedAt,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", sub.UserID).Msg("failed to save push subscription")
		r.m.TechnicalErrors.WithLabelValues("db_insert_error", "critical").Inc()
		return err
	}
	r.log.Info().Ctx(ctx).Str("user_id", sub.UserID).Msg("push subscription saved")
	return nil
}

func (r *PushRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to delete push subscription")
		r.m.TechnicalErrors.WithLabelValues("db_delete_error", "critical").Inc()
		return err
	}
	r.log.Info().Ctx(ctx).Str("user_id", userID).Msg("push subscription removed")
	return nil
}
