// Package features resolves experiment variants. A user's variants are
// resolved once when their preferences session starts and then passed down
// as plain configuration.
package features

import "github.com/cespare/xxhash/v2"

type Variant string

const (
	Control Variant = "control"
	V1      Variant = "v1"
)

// ReminderPushCoupling decides whether the push switch also drives the
// reading reminder side channel (control) or leaves it alone (v1).
const ReminderPushCoupling = "reading_reminder_push_coupling"

const buckets = 100

type Experiment struct {
	Name string
	// RolloutPercent of users land in V1.
	RolloutPercent int
	// Force pins every user to one variant when set.
	Force Variant
}

// Set is the resolved variants of one session.
type Set struct {
	ReminderPushCoupling Variant `json:"readingReminderPushCoupling"`
}

func (s Set) CouplesReminderWithPush() bool {
	return s.ReminderPushCoupling != V1
}

type Resolver struct {
	coupling Experiment
}

func NewResolver(rolloutPercent int, force string) *Resolver {
	rolloutPercent = max(0, min(rolloutPercent, buckets))
	return &Resolver{coupling: Experiment{
		Name:           ReminderPushCoupling,
		RolloutPercent: rolloutPercent,
		Force:          Variant(force),
	}}
}

func (r *Resolver) Resolve(userID string) Set {
	return Set{ReminderPushCoupling: r.coupling.variantFor(userID)}
}

func (e Experiment) variantFor(userID string) Variant {
	switch e.Force {
	case Control, V1:
		return e.Force
	}
	if Bucket(e.Name, userID) < e.RolloutPercent {
		return V1
	}
	return Control
}

// Bucket maps a user to a stable bucket in [0, 100) per experiment.
func Bucket(experiment, userID string) int {
	return int(xxhash.Sum64String(experiment+":"+userID) % buckets)
}
