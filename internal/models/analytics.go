package models

const (
	EventEnableNotification      = "enable notification"
	EventDisableNotification     = "disable notification"
	EventScheduleDigest          = "schedule digest"
	EventScheduleReadingReminder = "schedule reading reminder"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelWeb   NotificationChannel = "web"
)

type NotificationCategory string

const (
	CategoryProduct         NotificationCategory = "product"
	CategoryMarketing       NotificationCategory = "marketing"
	CategoryDigest          NotificationCategory = "digest"
	CategoryReadingReminder NotificationCategory = "reading_reminder"
)
