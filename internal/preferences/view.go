package preferences

import (
	"context"

	"github.com/Nazarious-ucu/notification-preferences/internal/features"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
)

// View is the consistent settings form of one user.
// PersonalizedDigestType is nil while the subscription list has not loaded yet.
type View struct {
	EmailNotification      bool             `json:"emailNotification"`
	NotificationEmail      bool             `json:"notificationEmail"`
	AcceptedMarketing      bool             `json:"acceptedMarketing"`
	PersonalizedDigestType *models.SendType `json:"personalizedDigestType"`
	DigestHour             int              `json:"digestHour"`
	ShowDigestHour         bool             `json:"showDigestHour"`
	ReadingReminder        bool             `json:"readingReminder"`
	ReadingHour            int              `json:"readingHour"`
	ShowReadingHour        bool             `json:"showReadingHour"`
	PushSupported          bool             `json:"pushSupported"`
	PushInitialized        bool             `json:"pushInitialized"`
	PushSubscribed         bool             `json:"pushSubscribed"`
	ShowAlert              bool             `json:"showAlert"`
	Timezone               string           `json:"timezone"`
	Variants               features.Set     `json:"variants"`
}

func EmailNotification(p models.Profile, digestExists bool) bool {
	return p.AcceptedMarketing || p.NotificationEmail || digestExists
}

// PersonalizedDigestType returns the digest cadence, or false while it is unresolved.
func PersonalizedDigestType(digest *models.PersonalizedDigest, loaded bool) (models.SendType, bool) {
	switch {
	case digest != nil:
		return digest.SendType, true
	case loaded:
		return models.SendTypeOff, true
	default:
		return "", false
	}
}

func ShowAlert(pushSupported, alertNotDismissed, pushInitialized, pushSubscribed bool) bool {
	return pushSupported && alertNotDismissed && pushInitialized && !pushSubscribed
}

// View runs an update cycle and derives the form from it.
func (r *Reconciler) View(ctx context.Context) View {
	r.Refresh(ctx)

	alert, err := r.deps.Flags.Get(ctx, r.alertKey(), true)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read alert flag, using default")
		r.m.TechnicalErrors.WithLabelValues("flag_store_error", "warning").Inc()
		alert = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		EmailNotification: EmailNotification(r.profile, r.server.digest != nil),
		NotificationEmail: r.profile.NotificationEmail,
		AcceptedMarketing: r.profile.AcceptedMarketing,
		DigestHour:        r.state.DigestTimeIndex,
		ReadingReminder:   r.server.reminder != nil,
		ReadingHour:       r.state.ReadingTimeIndex,
		PushSupported:     r.pushSupported,
		PushInitialized:   r.pushInitialized,
		PushSubscribed:    r.pushSubscribed,
		ShowAlert:         ShowAlert(r.pushSupported, alert, r.pushInitialized, r.pushSubscribed),
		Timezone:          r.profile.Timezone,
		Variants:          r.variants,
	}
	if st, ok := PersonalizedDigestType(r.server.digest, r.server.loaded); ok {
		v.PersonalizedDigestType = &st
		v.ShowDigestHour = st != models.SendTypeOff
	}
	v.ShowReadingHour = v.ReadingReminder
	return v
}
