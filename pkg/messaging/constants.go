package messaging

const (
	ExchangeName = "notifications"

	AnalyticsRoutingKey       = "analytics"
	DigestRoutingKey          = "digest"
	ReadingReminderRoutingKey = "reading_reminder"
)
