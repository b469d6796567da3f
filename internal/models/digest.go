package models

import "time"

// DigestType identifies which personalized digest subscription a record is.
type DigestType string

const (
	DigestTypeDigest          DigestType = "digest"
	DigestTypeReadingReminder DigestType = "reading_reminder"
)

func (t DigestType) Valid() bool {
	return t == DigestTypeDigest || t == DigestTypeReadingReminder
}

// SendType is the cadence flag of a subscription.
type SendType string

const (
	SendTypeDaily  SendType = "workdays"
	SendTypeWeekly SendType = "weekly"
	SendTypeOff    SendType = "off"
)

func ParseSendType(s string) (SendType, bool) {
	switch st := SendType(s); st {
	case SendTypeDaily, SendTypeWeekly, SendTypeOff:
		return st, true
	default:
		return "", false
	}
}

const (
	DefaultPreferredHour = 8
	MaxHour              = 23
)

func ValidHour(hour int) bool {
	return hour >= 0 && hour <= MaxHour
}

// PersonalizedDigest is a stored subscription. Its existence means enabled.
type PersonalizedDigest struct {
	UserID        string
	Type          DigestType
	PreferredHour int
	SendType      SendType
	LastSentAt    *time.Time
}

// SubscribeInput re-subscribes a digest type. Nil fields keep the stored value.
type SubscribeInput struct {
	Type     DigestType
	Hour     *int
	SendType *SendType
}

// ScheduledDigest is a subscription joined with what the scheduler needs from the owner.
type ScheduledDigest struct {
	PersonalizedDigest
	Email    string
	Timezone string
}
