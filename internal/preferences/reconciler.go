package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Nazarious-ucu/notification-preferences/internal/features"
	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/rs/zerolog"
)

// ErrPushNotInitialized is returned when the push state could not be loaded,
// so a toggle would not know which way to flip.
var ErrPushNotInitialized = errors.New("push state is not loaded yet")

// AlertPushKey is the durable flag holding whether the push upsell is still shown.
const AlertPushKey = "alert_push_key"

type digestService interface {
	List(ctx context.Context, userID string) ([]models.PersonalizedDigest, error)
	Subscribe(ctx context.Context, userID string, in models.SubscribeInput) error
	Unsubscribe(ctx context.Context, userID string, t models.DigestType) error
}

type profileService interface {
	Get(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, userID string, upd models.ProfileUpdate) error
}

type analyticsSink interface {
	Emit(ctx context.Context, userID, eventName, extra string) error
}

type pushBridge interface {
	IsSubscribed(ctx context.Context, userID string) (bool, error)
	RequestToggle(ctx context.Context, req models.PushRequest) (models.PushOutcome, error)
}

type flagStore interface {
	Get(ctx context.Context, key string, def bool) (bool, error)
	Set(ctx context.Context, key string, value bool) error
}

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Digests   digestService
	Profiles  profileService
	Analytics analyticsSink
	Push      pushBridge
	Flags     flagStore
}

// LocalToggleState caches the preferred hour of each subscription.
type LocalToggleState struct {
	DigestTimeIndex  int `json:"digestTimeIndex"`
	ReadingTimeIndex int `json:"readingTimeIndex"`
}

type serverSnapshot struct {
	loaded   bool
	digest   *models.PersonalizedDigest
	reminder *models.PersonalizedDigest
}

// observedHour is the server hour a local index was last reconciled against.
type observedHour struct {
	hour int
	ok   bool
}

// Reconciler is the notification settings of one user session.
// Every mutation starts with an update cycle, so it flips the state the user
// currently has, then emits its analytics and issues the remote call.
// Remote failures are logged and counted, never returned; the push permission
// request is the only call whose result reaches the caller.
type Reconciler struct {
	userID   string
	deps     Dependencies
	variants features.Set
	tracker  *Tracker
	log      zerolog.Logger
	m        *metrics.Metrics

	mu              sync.Mutex
	pushSupported   bool
	pushInitialized bool
	pushSubscribed  bool
	profile         models.Profile
	server          serverSnapshot
	seenDigest      observedHour
	seenReading     observedHour
	state           LocalToggleState
}

func NewReconciler(
	profile models.Profile,
	deps Dependencies,
	variants features.Set,
	pushSupported bool,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Reconciler {
	logger = logger.With().
		Str("component", "Reconciler").
		Str("user_id", profile.UserID).
		Logger()
	return &Reconciler{
		userID:        profile.UserID,
		deps:          deps,
		variants:      variants,
		tracker:       NewTracker(),
		log:           logger,
		m:             m,
		pushSupported: pushSupported,
		profile:       profile,
		state: LocalToggleState{
			DigestTimeIndex:  models.DefaultPreferredHour,
			ReadingTimeIndex: models.DefaultPreferredHour,
		},
	}
}

func (r *Reconciler) UserID() string {
	return r.userID
}

func (r *Reconciler) Variants() features.Set {
	return r.variants
}

func (r *Reconciler) SetPushSupported(supported bool) {
	r.mu.Lock()
	r.pushSupported = supported
	r.mu.Unlock()
}

// Local returns the cached hour indexes.
func (r *Reconciler) Local() LocalToggleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Refresh is one update cycle: it reloads the server state and reconciles
// the local hour indexes with it. A failed subscription load keeps the last
// known list, or leaves it unresolved if it never loaded.
func (r *Reconciler) Refresh(ctx context.Context) {
	profile, profileErr := r.deps.Profiles.Get(ctx, r.userID)
	subs, subsErr := r.deps.Digests.List(ctx, r.userID)
	subscribed, pushErr := r.deps.Push.IsSubscribed(ctx, r.userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if profileErr != nil {
		r.log.Error().Err(profileErr).Msg("failed to refresh profile")
		r.m.TechnicalErrors.WithLabelValues("profile_refresh_error", "warning").Inc()
	} else {
		r.profile = profile
	}

	if subsErr != nil {
		r.log.Error().Err(subsErr).Msg("failed to refresh subscriptions")
		r.m.TechnicalErrors.WithLabelValues("subscriptions_refresh_error", "warning").Inc()
	} else {
		r.applySubscriptionsLocked(subs)
	}

	if pushErr != nil {
		r.log.Error().Err(pushErr).Msg("failed to read push subscription state")
		r.m.TechnicalErrors.WithLabelValues("push_state_error", "warning").Inc()
	} else {
		r.pushInitialized = true
		r.pushSubscribed = subscribed
	}

	r.reconcileLocked()
}

func (r *Reconciler) refreshSubscriptions(ctx context.Context) {
	subs, err := r.deps.Digests.List(ctx, r.userID)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to reload subscriptions after mutation")
		r.m.TechnicalErrors.WithLabelValues("subscriptions_refresh_error", "warning").Inc()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.applySubscriptionsLocked(subs)
	r.reconcileLocked()
}

func (r *Reconciler) applySubscriptionsLocked(subs []models.PersonalizedDigest) {
	r.server.digest, r.server.reminder = nil, nil
	for i := range subs {
		sub := subs[i]
		switch sub.Type {
		case models.DigestTypeDigest:
			r.server.digest = &sub
		case models.DigestTypeReadingReminder:
			r.server.reminder = &sub
		}
	}
	r.server.loaded = true
}

// reconcileLocked overwrites a local hour index that disagrees with an existing
// server subscription. Each kind is reconciled once per observed server hour,
// so an optimistic local hour survives until the server value moves.
func (r *Reconciler) reconcileLocked() {
	r.reconcileKindLocked(r.server.digest, &r.seenDigest, &r.state.DigestTimeIndex)
	r.reconcileKindLocked(r.server.reminder, &r.seenReading, &r.state.ReadingTimeIndex)
}

func (r *Reconciler) reconcileKindLocked(sub *models.PersonalizedDigest, seen *observedHour, local *int) {
	if sub == nil {
		*seen = observedHour{}
		return
	}
	if seen.ok && seen.hour == sub.PreferredHour {
		return
	}
	*seen = observedHour{hour: sub.PreferredHour, ok: true}

	if *local != sub.PreferredHour {
		*local = sub.PreferredHour
		r.m.Reconciliations.WithLabelValues(string(sub.Type)).Inc()
	}
}

// forgetObserved makes the next update cycle reconcile kind again, e.g. after
// a failed hour write left the local index ahead of the server.
func (r *Reconciler) forgetObserved(kind models.DigestType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == models.DigestTypeReadingReminder {
		r.seenReading = observedHour{}
		return
	}
	r.seenDigest = observedHour{}
}

// ToggleEmailBundle flips the umbrella email switch: both profile fields follow
// it, and the digest is subscribed weekly or removed.
func (r *Reconciler) ToggleEmailBundle(ctx context.Context) {
	r.Refresh(ctx)

	r.mu.Lock()
	value := !EmailNotification(r.profile, r.server.digest != nil)
	r.profile.AcceptedMarketing, r.profile.NotificationEmail = value, value
	r.mu.Unlock()

	r.m.PreferenceChanges.WithLabelValues("email_bundle").Inc()
	r.trackToggle(ctx, value, models.ChannelEmail, []models.NotificationCategory{
		models.CategoryProduct,
		models.CategoryMarketing,
		models.CategoryDigest,
	})

	r.updateProfile(ctx, []string{KeyAcceptedMarketing, KeyNotificationEmail}, models.ProfileUpdate{
		AcceptedMarketing: &value,
		NotificationEmail: &value,
	})

	if value {
		weekly := models.SendTypeWeekly
		r.subscribe(ctx, models.SubscribeInput{Type: models.DigestTypeDigest, SendType: &weekly})
	} else {
		r.unsubscribe(ctx, models.DigestTypeDigest)
	}
}

func (r *Reconciler) ToggleEmailField(ctx context.Context, field models.EmailField) error {
	var (
		value    bool
		key      string
		category models.NotificationCategory
		upd      models.ProfileUpdate
	)
	if !field.Valid() {
		return models.ErrUnknownField
	}
	r.Refresh(ctx)

	r.mu.Lock()
	switch field {
	case models.EmailFieldNotificationEmail:
		value = !r.profile.NotificationEmail
		r.profile.NotificationEmail = value
		key, category, upd.NotificationEmail = KeyNotificationEmail, models.CategoryProduct, &value
	case models.EmailFieldAcceptedMarketing:
		value = !r.profile.AcceptedMarketing
		r.profile.AcceptedMarketing = value
		key, category, upd.AcceptedMarketing = KeyAcceptedMarketing, models.CategoryMarketing, &value
	default:
		r.mu.Unlock()
		return models.ErrUnknownField
	}
	r.mu.Unlock()

	r.m.PreferenceChanges.WithLabelValues(string(field)).Inc()
	r.trackToggle(ctx, value, models.ChannelEmail, category)
	r.updateProfile(ctx, []string{key}, upd)
	return nil
}

// ToggleReadingReminder reports the reminder change to analytics and returns
// the target value: force when given, otherwise the negation of the current
// subscription. It leaves the server state to the caller.
func (r *Reconciler) ToggleReadingReminder(ctx context.Context, force *bool) bool {
	r.Refresh(ctx)
	return r.toggleReadingReminder(ctx, force)
}

func (r *Reconciler) toggleReadingReminder(ctx context.Context, force *bool) bool {
	r.mu.Lock()
	value := r.server.reminder == nil
	if force != nil {
		value = *force
	}
	hour, tz := r.state.ReadingTimeIndex, r.profile.Timezone
	r.mu.Unlock()

	r.trackToggle(ctx, value, models.ChannelWeb, models.CategoryReadingReminder)
	r.emit(ctx, models.EventScheduleReadingReminder, scheduleExtra{Hour: hour, Timezone: tz})
	return value
}

// SetReadingReminder is the reminder checkbox: it tracks the change and then
// subscribes at the current reading hour or unsubscribes.
func (r *Reconciler) SetReadingReminder(ctx context.Context, enabled bool) {
	r.Refresh(ctx)
	r.m.PreferenceChanges.WithLabelValues("reading_reminder").Inc()
	r.toggleReadingReminder(ctx, &enabled)

	if !enabled {
		r.unsubscribe(ctx, models.DigestTypeReadingReminder)
		return
	}
	hour := r.Local().ReadingTimeIndex
	r.subscribe(ctx, models.SubscribeInput{Type: models.DigestTypeReadingReminder, Hour: &hour})
}

// TogglePush flips push notifications through SetPushAndReminder. It fails
// with ErrPushNotInitialized while the current push state is unknown.
func (r *Reconciler) TogglePush(ctx context.Context, keys *models.PushKeys) (models.PushOutcome, error) {
	r.Refresh(ctx)

	r.mu.Lock()
	initialized, enabled := r.pushInitialized, !r.pushSubscribed
	r.mu.Unlock()
	if !initialized {
		r.m.BusinessErrors.WithLabelValues("push_not_initialized", "warning").Inc()
		return "", ErrPushNotInitialized
	}

	return r.setPushAndReminder(ctx, enabled, keys)
}

// SetPushAndReminder tracks the push change, drives the reading reminder side
// channel when the session's variant couples them, and then waits for the
// permission request.
func (r *Reconciler) SetPushAndReminder(
	ctx context.Context,
	enabled bool,
	keys *models.PushKeys,
) (models.PushOutcome, error) {
	r.Refresh(ctx)
	return r.setPushAndReminder(ctx, enabled, keys)
}

func (r *Reconciler) setPushAndReminder(ctx context.Context, enabled bool, keys *models.PushKeys) (models.PushOutcome, error) {
	r.m.PreferenceChanges.WithLabelValues("push").Inc()
	r.trackToggle(ctx, enabled, models.ChannelWeb, models.CategoryProduct)

	if r.variants.CouplesReminderWithPush() {
		r.toggleReadingReminder(ctx, &enabled)
	}

	r.mu.Lock()
	req := models.PushRequest{
		UserID:    r.userID,
		Source:    models.PromptSourceNotificationsPage,
		Enable:    enabled,
		Supported: r.pushSupported,
		Keys:      keys,
	}
	r.mu.Unlock()

	var outcome models.PushOutcome
	err := r.tracker.Do(ctx, KeyPush,
		func(ctx context.Context) error {
			var err error
			outcome, err = r.deps.Push.RequestToggle(ctx, req)
			return err
		},
		func(context.Context) {
			if outcome != models.PushGranted {
				return
			}
			r.mu.Lock()
			r.pushInitialized, r.pushSubscribed = true, enabled
			r.mu.Unlock()
		},
	)
	if err != nil {
		r.settle(KeyPush, err)
		return outcome, err
	}
	return outcome, nil
}

// SetPersonalizedDigestType changes the digest cadence. Off unsubscribes;
// any other cadence re-subscribes at the last known hour.
func (r *Reconciler) SetPersonalizedDigestType(ctx context.Context, sendType models.SendType) error {
	if _, ok := models.ParseSendType(string(sendType)); !ok {
		return models.ErrUnknownSendType
	}
	r.Refresh(ctx)

	r.m.PreferenceChanges.WithLabelValues("digest_type").Inc()
	r.trackToggle(ctx, sendType != models.SendTypeOff, models.ChannelEmail, models.CategoryDigest)

	if sendType == models.SendTypeOff {
		r.unsubscribe(ctx, models.DigestTypeDigest)
		return nil
	}

	r.mu.Lock()
	hour, tz := r.state.DigestTimeIndex, r.profile.Timezone
	r.mu.Unlock()

	r.emit(ctx, models.EventScheduleDigest, scheduleExtra{Hour: hour, Timezone: tz, Frequency: &sendType})
	r.subscribe(ctx, models.SubscribeInput{Type: models.DigestTypeDigest, SendType: &sendType})
	return nil
}

// SetCustomTime moves a subscription to hour. The local index changes right
// away; the next update cycle brings it back in line if the write failed.
func (r *Reconciler) SetCustomTime(ctx context.Context, kind models.DigestType, hour int) error {
	if !kind.Valid() {
		return models.ErrUnknownKind
	}
	if !models.ValidHour(hour) {
		return models.ErrInvalidHour
	}
	r.Refresh(ctx)

	r.mu.Lock()
	tz := r.profile.Timezone
	digestType, resolved := PersonalizedDigestType(r.server.digest, r.server.loaded)
	if kind == models.DigestTypeDigest {
		r.state.DigestTimeIndex = hour
	} else {
		r.state.ReadingTimeIndex = hour
	}
	r.mu.Unlock()

	r.m.PreferenceChanges.WithLabelValues("custom_time").Inc()
	extra := scheduleExtra{Hour: hour, Timezone: tz}
	if kind == models.DigestTypeReadingReminder {
		r.emit(ctx, models.EventScheduleReadingReminder, extra)
	} else {
		if resolved {
			extra.Frequency = &digestType
		}
		r.emit(ctx, models.EventScheduleDigest, extra)
	}

	r.subscribe(ctx, models.SubscribeInput{Type: kind, Hour: &hour})
	return nil
}

// DismissAlert hides the push upsell for good.
func (r *Reconciler) DismissAlert(ctx context.Context) error {
	if err := r.deps.Flags.Set(ctx, r.alertKey(), false); err != nil {
		r.log.Error().Err(err).Msg("failed to persist alert dismissal")
		r.m.TechnicalErrors.WithLabelValues("flag_store_error", "warning").Inc()
		return err
	}
	return nil
}

func (r *Reconciler) alertKey() string {
	return AlertPushKey + ":" + r.userID
}

type toggleExtra struct {
	Channel  models.NotificationChannel `json:"channel"`
	Category any                        `json:"category"`
}

type scheduleExtra struct {
	Hour      int              `json:"hour"`
	Timezone  string           `json:"timezone,omitempty"`
	Frequency *models.SendType `json:"frequency,omitempty"`
}

func (r *Reconciler) trackToggle(ctx context.Context, enabled bool, channel models.NotificationChannel, category any) {
	name := models.EventDisableNotification
	if enabled {
		name = models.EventEnableNotification
	}
	r.emit(ctx, name, toggleExtra{Channel: channel, Category: category})
}

func (r *Reconciler) emit(ctx context.Context, name string, extra any) {
	body, err := json.Marshal(extra)
	if err != nil {
		r.log.Error().Err(err).Str("event", name).Msg("failed to encode analytics payload")
		return
	}
	if err := r.deps.Analytics.Emit(ctx, r.userID, name, string(body)); err != nil {
		r.log.Warn().Err(err).Str("event", name).Msg("analytics event dropped")
		r.m.TechnicalErrors.WithLabelValues("analytics_emit_error", "warning").Inc()
	}
}

func (r *Reconciler) updateProfile(ctx context.Context, keys []string, upd models.ProfileUpdate) {
	err := r.tracker.DoAll(ctx, keys, func(ctx context.Context) error {
		return r.deps.Profiles.Update(ctx, r.userID, upd)
	}, nil)
	for _, key := range keys {
		r.settle(key, err)
	}
}

func (r *Reconciler) subscribe(ctx context.Context, in models.SubscribeInput) {
	key := keyFor(in.Type)
	err := r.tracker.Do(ctx, key, func(ctx context.Context) error {
		return r.deps.Digests.Subscribe(ctx, r.userID, in)
	}, r.refreshSubscriptions)
	if err != nil && !errors.Is(err, ErrSuperseded) {
		r.forgetObserved(in.Type)
	}
	r.settle(key, err)
}

func (r *Reconciler) unsubscribe(ctx context.Context, t models.DigestType) {
	key := keyFor(t)
	err := r.tracker.Do(ctx, key, func(ctx context.Context) error {
		return r.deps.Digests.Unsubscribe(ctx, r.userID, t)
	}, r.refreshSubscriptions)
	r.settle(key, err)
}

func (r *Reconciler) settle(key string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrSuperseded):
		r.m.SupersededIntents.WithLabelValues(key).Inc()
		r.log.Debug().Str("key", key).Msg("request superseded by a newer one")
	default:
		r.log.Error().Err(err).Str("key", key).Msg("remote preference change failed")
		r.m.TechnicalErrors.WithLabelValues("mutation_error", "warning").Inc()
	}
}

func keyFor(t models.DigestType) string {
	if t == models.DigestTypeReadingReminder {
		return KeyReadingReminder
	}
	return KeyDigest
}
