package preferences

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Preference keys that own an in-flight token.
const (
	KeyAcceptedMarketing = "profile.accepted_marketing"
	KeyNotificationEmail = "profile.notification_email"
	KeyDigest            = "digest"
	KeyReadingReminder   = "reading_reminder"
	KeyPush              = "push"
)

// ErrSuperseded is returned when a newer call for the same key arrived first.
var ErrSuperseded = errors.New("superseded by a newer request")

type keyState struct {
	run    sync.Mutex
	latest uint64
}

// Tracker serializes remote calls per preference key and lets the latest
// intent win: a call still waiting for its key when a newer one arrives is
// dropped, and a call that finishes after being superseded has its
// completion ignored.
type Tracker struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

func NewTracker() *Tracker {
	return &Tracker{keys: make(map[string]*keyState)}
}

func (t *Tracker) begin(key string) (*keyState, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.keys[key]
	if !ok {
		st = &keyState{}
		t.keys[key] = st
	}
	st.latest++
	return st, st.latest
}

// Do runs call for key, then complete if this call is still the latest intent.
// complete may be nil.
func (t *Tracker) Do(
	ctx context.Context,
	key string,
	call func(ctx context.Context) error,
	complete func(ctx context.Context),
) error {
	return t.DoAll(ctx, []string{key}, call, complete)
}

// DoAll is Do for a call that changes several keys at once. Keys are locked
// in sorted order, and the call is dropped if any of them was superseded.
func (t *Tracker) DoAll(
	ctx context.Context,
	keys []string,
	call func(ctx context.Context) error,
	complete func(ctx context.Context),
) error {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	states := make([]*keyState, len(keys))
	tokens := make([]uint64, len(keys))
	for i, key := range keys {
		states[i], tokens[i] = t.begin(key)
	}

	for _, st := range states {
		st.run.Lock()
	}
	defer func() {
		for i := len(states) - 1; i >= 0; i-- {
			states[i].run.Unlock()
		}
	}()

	if !t.allCurrent(states, tokens) {
		return ErrSuperseded
	}
	if err := call(ctx); err != nil {
		return err
	}
	if !t.allCurrent(states, tokens) {
		return ErrSuperseded
	}
	if complete != nil {
		complete(ctx)
	}
	return nil
}

func (t *Tracker) allCurrent(states []*keyState, tokens []uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, st := range states {
		if st.latest != tokens[i] {
			return false
		}
	}
	return true
}
