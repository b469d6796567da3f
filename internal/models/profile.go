package models

type Profile struct {
	UserID            string
	Email             string
	Timezone          string
	AcceptedMarketing bool
	NotificationEmail bool
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	AcceptedMarketing *bool
	NotificationEmail *bool
}

// EmailField names a single email preference of the profile.
type EmailField string

const (
	EmailFieldNotificationEmail EmailField = "notificationEmail"
	EmailFieldAcceptedMarketing EmailField = "acceptedMarketing"
)

func (f EmailField) Valid() bool {
	return f == EmailFieldNotificationEmail || f == EmailFieldAcceptedMarketing
}
