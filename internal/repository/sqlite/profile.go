package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/rs/zerolog"
)

type ProfileRepository struct {
	DB  *sql.DB
	log zerolog.Logger
	m   *metrics.Metrics
}

func NewProfileRepository(db *sql.DB, logger zerolog.Logger, m *metrics.Metrics) *ProfileRepository {
	logger = logger.With().Str("component", "ProfileRepository").Logger()
	return &ProfileRepository{DB: db, log: logger, m: m}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := r.DB.QueryRowContext(ctx, `
		SELECT email, timezone, accepted_marketing, notification_email
		FROM users WHERE id = ?`, userID,
	).Scan(&p.Email, &p.Timezone, &p.AcceptedMarketing, &p.NotificationEmail)
	if errors.Is(err, sql.ErrNoRows) {
		r.m.BusinessErrors.WithLabelValues("user_not_found", "warning").Inc()
		return models.Profile{}, models.ErrUserNotFound
	}
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to load profile")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return models.Profile{}, err
	}
	return p, nil
}

// Update writes only the fields set in upd.
func (r *ProfileRepository) Update(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET
			accepted_marketing = COALESCE(?, accepted_marketing),
			notification_email = COALESCE(?, notification_email)
		WHERE id = ?`,
		nullBool(upd.AcceptedMarketing), nullBool(upd.NotificationEmail), userID,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Str("user_id", userID).Msg("failed to update profile")
		r.m.TechnicalErrors.WithLabelValues("db_update_error", "critical").Inc()
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return err
	}
	if count == 0 {
		r.m.BusinessErrors.WithLabelValues("user_not_found", "warning").Inc()
		return models.ErrUserNotFound
	}

	ev := r.log.Info().Ctx(ctx).Str("user_id", userID)
	if upd.AcceptedMarketing != nil {
		ev = ev.Bool("accepted_marketing", *upd.AcceptedMarketing)
	}
	if upd.NotificationEmail != nil {
		ev = ev.Bool("notification_email", *upd.NotificationEmail)
	}
	ev.Msg("profile updated")
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
