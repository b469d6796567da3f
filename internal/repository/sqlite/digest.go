package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/rs/zerolog"
)

// DigestRepository stores personalized digest subscriptions with structured logging and metrics.
type DigestRepository struct {
	DB  *sql.DB
	log zerolog.Logger
	m   *metrics.Metrics
}

func NewDigestRepository(db *sql.DB, logger zerolog.Logger, m *metrics.Metrics) *DigestRepository {
	logger = logger.With().Str("component", "DigestRepository").Logger()
	return &DigestRepository{DB: db, log: logger, m: m}
}

// List returns every subscription of the user, at most one per type.
func (r *DigestRepository) List(ctx context.Context, userID string) ([]models.PersonalizedDigest, error) {
	start := time.Now()
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, type, preferred_hour, send_type, last_sent_at
		FROM user_personalized_digest
		WHERE user_id = ?
		ORDER BY type`, userID,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to query subscriptions")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return nil, err
	}
	defer r.closeRows(ctx, rows)

	subs, err := r.scan(ctx, rows)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Ctx(ctx).
		Str("user_id", userID).
		Int("count", len(subs)).
		Dur("duration", time.Since(start)).
		Msg("listed subscriptions")
	return subs, nil
}

// Subscribe creates or replaces the subscription of in.Type.
// Omitted hour and cadence reuse the stored values, or the defaults for a new record.
func (r *DigestRepository) Subscribe(ctx context.Context, userID string, in models.SubscribeInput) error {
	if !in.Type.Valid() {
		return models.ErrUnknownKind
	}

	hour, sendType := models.DefaultPreferredHour, defaultSendType(in.Type)

	var storedHour int
	var storedSendType string
	err := r.DB.QueryRowContext(ctx,
		`SELECT preferred_hour, send_type FROM user_personalized_digest WHERE user_id = ? AND type = ?`,
		userID, string(in.Type),
	).Scan(&storedHour, &storedSendType)
	switch {
	case err == nil:
		hour, sendType = storedHour, models.SendType(storedSendType)
	case errors.Is(err, sql.ErrNoRows):
	default:
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to read stored subscription")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return err
	}

	if in.Hour != nil {
		hour = *in.Hour
	}
	if in.SendType != nil {
		sendType = *in.SendType
	}
	if !models.ValidHour(hour) {
		return models.ErrInvalidHour
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO user_personalized_digest (user_id, type, preferred_hour, send_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, type) DO UPDATE SET
			preferred_hour = excluded.preferred_hour,
			send_type      = excluded.send_type`,
		userID, string(in.Type), hour, string(sendType),
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to upsert subscription")
		r.m.TechnicalErrors.WithLabelValues("db_insert_error", "critical").Inc()
		return err
	}

	r.log.Info().Ctx(ctx).
		Str("user_id", userID).
		Str("type", string(in.Type)).
		Int("hour", hour).
		Str("send_type", string(sendType)).
		Msg("subscription stored")
	return nil
}

// Unsubscribe removes the subscription. An empty type means the digest.
func (r *DigestRepository) Unsubscribe(ctx context.Context, userID string, t models.DigestType) error {
	if t == "" {
		t = models.DigestTypeDigest
	}

	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_personalized_digest WHERE user_id = ? AND type = ?`, userID, string(t),
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to delete subscription")
		r.m.TechnicalErrors.WithLabelValues("db_delete_error", "critical").Inc()
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return err
	}

	r.log.Info().Ctx(ctx).
		Str("user_id", userID).
		Str("type", string(t)).
		Int64("removed", count).
		Msg("subscription removed")
	return nil
}

// ListScheduled returns every subscription together with its owner's email and timezone.
func (r *DigestRepository) ListScheduled(ctx context.Context) ([]models.ScheduledDigest, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.user_id, d.type, d.preferred_hour, d.send_type, d.last_sent_at, u.email, u.timezone
		FROM user_personalized_digest d
		JOIN users u ON u.id = d.user_id
		WHERE d.send_type <> 'off'`,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to query scheduled subscriptions")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return nil, err
	}
	defer r.closeRows(ctx, rows)

	var out []models.ScheduledDigest
	for rows.Next() {
		var sd models.ScheduledDigest
		var typ, sendType string
		var lastSent sql.NullTime
		if err := rows.Scan(&sd.UserID, &typ, &sd.PreferredHour, &sendType, &lastSent,
			&sd.Email, &sd.Timezone); err != nil {
			r.log.Error().Err(err).Ctx(ctx).Msg("failed to scan scheduled subscription")
			r.m.TechnicalErrors.WithLabelValues("db_scan_error", "critical").Inc()
			return nil, err
		}
		sd.Type, sd.SendType = models.DigestType(typ), models.SendType(sendType)
		if lastSent.Valid {
			sd.LastSentAt = &lastSent.Time
		}
		out = append(out, sd)
	}
	if err := rows.Err(); err != nil {
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return nil, err
	}
	return out, nil
}

// MarkSent records when a digest was last handed to delivery.
func (r *DigestRepository) MarkSent(ctx context.Context, userID string, t models.DigestType, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE user_personalized_digest SET last_sent_at = ? WHERE user_id = ? AND type = ?`,
		at.UTC(), userID, string(t),
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Str("user_id", userID).
			Str("type", string(t)).
			Msg("failed to update last_sent_at")
		r.m.TechnicalErrors.WithLabelValues("db_update_error", "critical").Inc()
	}
	return err
}

func (r *DigestRepository) scan(ctx context.Context, rows *sql.Rows) ([]models.PersonalizedDigest, error) {
	var subs []models.PersonalizedDigest
	for rows.Next() {
		var sub models.PersonalizedDigest
		var typ, sendType string
		var lastSent sql.NullTime
		if err := rows.Scan(&sub.UserID, &typ, &sub.PreferredHour, &sendType, &lastSent); err != nil {
			r.log.Error().Err(err).Ctx(ctx).Msg("failed to scan subscription row")
			r.m.TechnicalErrors.WithLabelValues("db_scan_error", "critical").Inc()
			return nil, err
		}
		sub.Type, sub.SendType = models.DigestType(typ), models.SendType(sendType)
		if lastSent.Valid {
			sub.LastSentAt = &lastSent.Time
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("row iteration error")
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return nil, err
	}
	return subs, nil
}

func (r *DigestRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to close rows after query")
		r.m.TechnicalErrors.WithLabelValues("db_rows_close_error", "critical").Inc()
	}
}

func defaultSendType(t models.DigestType) models.SendType {
	if t == models.DigestTypeReadingReminder {
		return models.SendTypeDaily
	}
	return models.SendTypeWeekly
}
