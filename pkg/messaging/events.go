package messaging

import "time"

// AnalyticsEvent is one tracked interaction of the settings page.
// Extra carries the event payload already serialized as JSON.
type AnalyticsEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EventName  string    `json:"event_name"`
	Extra      string    `json:"extra,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DigestDueEvent asks the delivery side to send a digest or a reading reminder.
type DigestDueEvent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	Type          string    `json:"type"`
	SendType      string    `json:"send_type"`
	PreferredHour int       `json:"preferred_hour"`
	Timezone      string    `json:"timezone"`
	ScheduledFor  time.Time `json:"scheduled_for"`
}
