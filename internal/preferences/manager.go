package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/Nazarious-ucu/notification-preferences/internal/features"
	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/rs/zerolog"
)

type variantResolver interface {
	Resolve(userID string) features.Set
}

type session struct {
	rec      *Reconciler
	lastSeen time.Time
}

// Manager keeps one Reconciler per active user. Variants are resolved when a
// session is created and stay fixed until it is evicted.
type Manager struct {
	deps     Dependencies
	resolver variantResolver
	log      zerolog.Logger
	m        *metrics.Metrics
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(deps Dependencies, resolver variantResolver, logger zerolog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		deps:     deps,
		resolver: resolver,
		log:      logger.With().Str("component", "SessionManager").Logger(),
		m:        m,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Session returns the user's reconciler, creating it on first use.
// It fails with models.ErrUserNotFound for unknown users.
func (mg *Manager) Session(ctx context.Context, userID string, pushSupported bool) (*Reconciler, error) {
	mg.mu.Lock()
	if s, ok := mg.sessions[userID]; ok {
		s.lastSeen = mg.now()
		mg.mu.Unlock()
		s.rec.SetPushSupported(pushSupported)
		return s.rec, nil
	}
	mg.mu.Unlock()

	profile, err := mg.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	variants := mg.resolver.Resolve(userID)

	mg.mu.Lock()
	defer mg.mu.Unlock()
	// another request may have opened the session meanwhile
	if s, ok := mg.sessions[userID]; ok {
		s.lastSeen = mg.now()
		s.rec.SetPushSupported(pushSupported)
		return s.rec, nil
	}

	rec := NewReconciler(profile, mg.deps, variants, pushSupported, mg.log, mg.m)
	mg.sessions[userID] = &session{rec: rec, lastSeen: mg.now()}
	mg.m.ActiveSessions.Set(float64(len(mg.sessions)))

	mg.log.Info().
		Str("user_id", userID).
		Str("reminder_push_coupling", string(variants.ReminderPushCoupling)).
		Msg("session opened")
	return rec, nil
}

// Evict drops sessions idle for longer than ttl and returns how many went away.
func (mg *Manager) Evict(ttl time.Duration) int {
	cutoff := mg.now().Add(-ttl)

	mg.mu.Lock()
	defer mg.mu.Unlock()

	evicted := 0
	for id, s := range mg.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(mg.sessions, id)
			evicted++
		}
	}
	mg.m.ActiveSessions.Set(float64(len(mg.sessions)))
	return evicted
}

func (mg *Manager) Len() int {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return len(mg.sessions)
}
