package models

import "time"

type PushOutcome string

const (
	PushGranted     PushOutcome = "granted"
	PushDenied      PushOutcome = "denied"
	PushUnsupported PushOutcome = "unsupported"
)

const PromptSourceNotificationsPage = "notifications page"

// PushKeys is what the browser hands over after the user grants permission.
type PushKeys struct {
	Endpoint string `json:"endpoint"`
	P256DH   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

func (k *PushKeys) Complete() bool {
	return k != nil && k.Endpoint != "" && k.P256DH != "" && k.Auth != ""
}

// PushRequest asks the push bridge to enable or disable push for a user.
type PushRequest struct {
	UserID    string
	Source    string
	Enable    bool
	Supported bool
	Keys      *PushKeys
}

type PushSubscription struct {
	UserID    string
	Endpoint  string
	P256DH    string
	Auth      string
	CreatedAt time.Time
}
