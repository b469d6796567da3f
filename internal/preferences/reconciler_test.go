//go:build unit

package preferences_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/notification-preferences/internal/features"
	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/Nazarious-ucu/notification-preferences/internal/preferences"
)

const (
	userID = "user-1"
	tz     = "Europe/Kyiv"
)

// fakeServer is an in-memory backend that records every write and analytics event in order.
type fakeServer struct {
	mu       sync.Mutex
	calls    []string
	profile  models.Profile
	subs     map[models.DigestType]models.PersonalizedDigest
	pushed   bool
	flags    map[string]bool
	listErr  error
	pushErr  error
	writeErr error

	// when set, Subscribe signals entered and waits for gate
	entered chan struct{}
	gate    chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		profile: models.Profile{UserID: userID, Email: "user@example.com", Timezone: tz},
		subs:    make(map[models.DigestType]models.PersonalizedDigest),
		flags:   make(map[string]bool),
	}
}

func (f *fakeServer) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeServer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServer) List(_ context.Context, _ string) ([]models.PersonalizedDigest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.PersonalizedDigest, 0, len(f.subs))
	for _, s := range f.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (f *fakeServer) Subscribe(_ context.Context, uid string, in models.SubscribeInput) error {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	hour, send := "-", "-"
	if in.Hour != nil {
		hour = fmt.Sprint(*in.Hour)
	}
	if in.SendType != nil {
		send = string(*in.SendType)
	}
	f.record("subscribe %s hour=%s send=%s", in.Type, hour, send)
	if f.writeErr != nil {
		return f.writeErr
	}

	sub, ok := f.subs[in.Type]
	if !ok {
		sub = models.PersonalizedDigest{
			UserID:        uid,
			Type:          in.Type,
			PreferredHour: models.DefaultPreferredHour,
			SendType:      models.SendTypeWeekly,
		}
	}
	if in.Hour != nil {
		sub.PreferredHour = *in.Hour
	}
	if in.SendType != nil {
		sub.SendType = *in.SendType
	}
	f.subs[in.Type] = sub
	return nil
}

func (f *fakeServer) Unsubscribe(_ context.Context, _ string, t models.DigestType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unsubscribe %s", t)
	if f.writeErr != nil {
		return f.writeErr
	}
	delete(f.subs, t)
	return nil
}

func (f *fakeServer) Get(_ context.Context, _ string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeServer) Update(_ context.Context, _ string, upd models.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	show := func(b *bool) string {
		if b == nil {
			return "-"
		}
		return fmt.Sprint(*b)
	}
	f.record("update marketing=%s email=%s", show(upd.AcceptedMarketing), show(upd.NotificationEmail))
	if f.writeErr != nil {
		return f.writeErr
	}
	if upd.AcceptedMarketing != nil {
		f.profile.AcceptedMarketing = *upd.AcceptedMarketing
	}
	if upd.NotificationEmail != nil {
		f.profile.NotificationEmail = *upd.NotificationEmail
	}
	return nil
}

func (f *fakeServer) Emit(_ context.Context, _ string, eventName, extra string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("emit %s %s", eventName, extra)
	return nil
}

func (f *fakeServer) IsSubscribed(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushed, f.pushErr
}

func (f *fakeServer) RequestToggle(_ context.Context, req models.PushRequest) (models.PushOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("push enable=%v source=%s", req.Enable, req.Source)
	if !req.Supported {
		return models.PushUnsupported, nil
	}
	f.pushed = req.Enable
	return models.PushGranted, nil
}

func (f *fakeServer) flag(key string, def bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.flags[key]
	if !ok {
		return def
	}
	return v
}

type fakeFlags struct {
	srv *fakeServer
}

func (ff fakeFlags) Get(_ context.Context, key string, def bool) (bool, error) {
	return ff.srv.flag(key, def), nil
}

func (ff fakeFlags) Set(_ context.Context, key string, value bool) error {
	ff.srv.mu.Lock()
	defer ff.srv.mu.Unlock()
	ff.srv.flags[key] = value
	return nil
}

func newReconciler(
	t *testing.T,
	srv *fakeServer,
	variant features.Variant,
	pushSupported bool,
) (*preferences.Reconciler, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics("preferences_test", nil, "test")
	deps := preferences.Dependencies{
		Digests:   srv,
		Profiles:  srv,
		Analytics: srv,
		Push:      srv,
		Flags:     fakeFlags{srv: srv},
	}
	rec := preferences.NewReconciler(
		srv.profile,
		deps,
		features.Set{ReminderPushCoupling: variant},
		pushSupported,
		zerolog.Nop(),
		m,
	)
	return rec, m
}

func TestEmailNotification_OrLaw(t *testing.T) {
	for _, marketing := range []bool{false, true} {
		for _, email := range []bool{false, true} {
			for _, digest := range []bool{false, true} {
				p := models.Profile{AcceptedMarketing: marketing, NotificationEmail: email}
				assert.Equal(t, marketing || email || digest, preferences.EmailNotification(p, digest),
					"marketing=%v email=%v digest=%v", marketing, email, digest)
			}
		}
	}
}

func TestPersonalizedDigestType(t *testing.T) {
	digest := &models.PersonalizedDigest{Type: models.DigestTypeDigest, SendType: models.SendTypeDaily}

	st, ok := preferences.PersonalizedDigestType(digest, true)
	assert.True(t, ok)
	assert.Equal(t, models.SendTypeDaily, st)

	st, ok = preferences.PersonalizedDigestType(nil, true)
	assert.True(t, ok)
	assert.Equal(t, models.SendTypeOff, st)

	_, ok = preferences.PersonalizedDigestType(nil, false)
	assert.False(t, ok, "not loaded yet must stay unresolved")
}

func TestShowAlert(t *testing.T) {
	assert.True(t, preferences.ShowAlert(true, true, true, false))
	assert.False(t, preferences.ShowAlert(false, true, true, false))
	assert.False(t, preferences.ShowAlert(true, false, true, false))
	assert.False(t, preferences.ShowAlert(true, true, false, false))
	assert.False(t, preferences.ShowAlert(true, true, true, true))
}

func TestToggleEmailBundle_EnablesEverything(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)

	rec.ToggleEmailBundle(context.Background())

	assert.Equal(t, []string{
		`emit enable notification {"channel":"email","category":["product","marketing","digest"]}`,
		"update marketing=true email=true",
		"subscribe digest hour=- send=weekly",
	}, srv.Calls())

	view := rec.View(context.Background())
	assert.True(t, view.EmailNotification)
	assert.True(t, view.AcceptedMarketing)
	assert.True(t, view.NotificationEmail)
	require.NotNil(t, view.PersonalizedDigestType)
	assert.Equal(t, models.SendTypeWeekly, *view.PersonalizedDigestType)
}

func TestToggleEmailBundle_DisablesWhenDigestOnly(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 9, SendType: models.SendTypeDaily,
	}
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	rec.ToggleEmailBundle(context.Background())

	assert.Equal(t, []string{
		`emit disable notification {"channel":"email","category":["product","marketing","digest"]}`,
		"update marketing=false email=false",
		"unsubscribe digest",
	}, srv.Calls())
	assert.False(t, rec.View(context.Background()).EmailNotification)
}

func TestToggleEmailField(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)

	require.NoError(t, rec.ToggleEmailField(context.Background(), models.EmailFieldAcceptedMarketing))
	require.NoError(t, rec.ToggleEmailField(context.Background(), models.EmailFieldNotificationEmail))

	assert.Equal(t, []string{
		`emit enable notification {"channel":"email","category":"marketing"}`,
		"update marketing=true email=-",
		`emit enable notification {"channel":"email","category":"product"}`,
		"update marketing=- email=true",
	}, srv.Calls())

	assert.ErrorIs(t, rec.ToggleEmailField(context.Background(), "sms"), models.ErrUnknownField)
	assert.Len(t, srv.Calls(), 4)
}

func TestTogglePush_CouplesReadingReminder(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	outcome, err := rec.TogglePush(context.Background(), &models.PushKeys{Endpoint: "e", P256DH: "p", Auth: "a"})
	require.NoError(t, err)
	assert.Equal(t, models.PushGranted, outcome)

	assert.Equal(t, []string{
		`emit enable notification {"channel":"web","category":"product"}`,
		`emit enable notification {"channel":"web","category":"reading_reminder"}`,
		`emit schedule reading reminder {"hour":8,"timezone":"Europe/Kyiv"}`,
		"push enable=true source=notifications page",
	}, srv.Calls())

	view := rec.View(context.Background())
	assert.True(t, view.PushSubscribed)
	assert.False(t, view.ShowAlert)
	assert.False(t, view.ReadingReminder, "the side channel reports analytics only")
}

func TestTogglePush_DecoupledVariant(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.V1, true)

	_, err := rec.TogglePush(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`emit enable notification {"channel":"web","category":"product"}`,
		"push enable=true source=notifications page",
	}, srv.Calls())
}

func TestTogglePush_Unsupported(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.V1, false)
	rec.Refresh(context.Background())

	outcome, err := rec.TogglePush(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.PushUnsupported, outcome)

	view := rec.View(context.Background())
	assert.False(t, view.PushSubscribed)
	assert.False(t, view.ShowAlert)
}

func TestSetPushAndReminder_Disable(t *testing.T) {
	srv := newFakeServer()
	srv.pushed = true
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	_, err := rec.SetPushAndReminder(context.Background(), false, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`emit disable notification {"channel":"web","category":"product"}`,
		`emit disable notification {"channel":"web","category":"reading_reminder"}`,
		`emit schedule reading reminder {"hour":8,"timezone":"Europe/Kyiv"}`,
		"push enable=false source=notifications page",
	}, srv.Calls())
	assert.False(t, rec.View(context.Background()).PushSubscribed)
}

func TestToggleReadingReminder(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	assert.True(t, rec.ToggleReadingReminder(context.Background(), nil))
	off := false
	assert.False(t, rec.ToggleReadingReminder(context.Background(), &off))

	for _, c := range srv.Calls() {
		assert.True(t, strings.HasPrefix(c, "emit "), "no remote write expected, got %q", c)
	}
}

func TestSetReadingReminder(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())
	require.NoError(t, rec.SetCustomTime(context.Background(), models.DigestTypeReadingReminder, 19))
	srv.calls = nil

	rec.SetReadingReminder(context.Background(), true)
	rec.SetReadingReminder(context.Background(), false)

	assert.Equal(t, []string{
		`emit enable notification {"channel":"web","category":"reading_reminder"}`,
		`emit schedule reading reminder {"hour":19,"timezone":"Europe/Kyiv"}`,
		"subscribe reading_reminder hour=19 send=-",
		`emit disable notification {"channel":"web","category":"reading_reminder"}`,
		`emit schedule reading reminder {"hour":19,"timezone":"Europe/Kyiv"}`,
		"unsubscribe reading_reminder",
	}, srv.Calls())
	assert.False(t, rec.View(context.Background()).ReadingReminder)
}

func TestSetPersonalizedDigestType_Off(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 9, SendType: models.SendTypeWeekly,
	}
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	require.NoError(t, rec.SetPersonalizedDigestType(context.Background(), models.SendTypeOff))

	calls := srv.Calls()
	assert.Equal(t, []string{
		`emit disable notification {"channel":"email","category":"digest"}`,
		"unsubscribe digest",
	}, calls)
	for _, c := range calls {
		assert.NotContains(t, c, `"hour"`)
	}

	view := rec.View(context.Background())
	require.NotNil(t, view.PersonalizedDigestType)
	assert.Equal(t, models.SendTypeOff, *view.PersonalizedDigestType)
	assert.False(t, view.ShowDigestHour)
}

func TestSetPersonalizedDigestType_KeepsHour(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 14, SendType: models.SendTypeDaily,
	}
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	require.NoError(t, rec.SetPersonalizedDigestType(context.Background(), models.SendTypeWeekly))

	assert.Equal(t, []string{
		`emit enable notification {"channel":"email","category":"digest"}`,
		`emit schedule digest {"hour":14,"timezone":"Europe/Kyiv","frequency":"weekly"}`,
		"subscribe digest hour=- send=weekly",
	}, srv.Calls())
	assert.Equal(t, 14, srv.subs[models.DigestTypeDigest].PreferredHour)

	assert.ErrorIs(t, rec.SetPersonalizedDigestType(context.Background(), "monthly"), models.ErrUnknownSendType)
}

func TestSetCustomTime_OptimisticThenConverges(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 10, SendType: models.SendTypeDaily,
	}
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())
	require.Equal(t, 10, rec.Local().DigestTimeIndex)

	srv.writeErr = errors.New("write rejected")
	require.NoError(t, rec.SetCustomTime(context.Background(), models.DigestTypeDigest, 15))
	assert.Equal(t, 15, rec.Local().DigestTimeIndex, "local hour changes without waiting for the server")

	rec.Refresh(context.Background())
	assert.Equal(t, 10, rec.Local().DigestTimeIndex, "next cycle restores the server hour")
}

func TestSetCustomTime_Digest(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 10, SendType: models.SendTypeDaily,
	}
	rec, _ := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	require.NoError(t, rec.SetCustomTime(context.Background(), models.DigestTypeDigest, 7))

	assert.Equal(t, []string{
		`emit schedule digest {"hour":7,"timezone":"Europe/Kyiv","frequency":"workdays"}`,
		"subscribe digest hour=7 send=-",
	}, srv.Calls())
	assert.Equal(t, 7, rec.Local().DigestTimeIndex)
	assert.Equal(t, 7, rec.View(context.Background()).DigestHour)
}

func TestSetCustomTime_Validation(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)

	assert.ErrorIs(t, rec.SetCustomTime(context.Background(), models.DigestTypeDigest, 24), models.ErrInvalidHour)
	assert.ErrorIs(t, rec.SetCustomTime(context.Background(), models.DigestTypeDigest, -1), models.ErrInvalidHour)
	assert.ErrorIs(t, rec.SetCustomTime(context.Background(), "weekly_report", 9), models.ErrUnknownKind)
	assert.Empty(t, srv.Calls())
	assert.Equal(t, models.DefaultPreferredHour, rec.Local().DigestTimeIndex)
}

func TestRefresh_ReconcilesOncePerChange(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeReadingReminder] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeReadingReminder, PreferredHour: 20, SendType: models.SendTypeDaily,
	}
	rec, m := newReconciler(t, srv, features.Control, true)

	for range 3 {
		rec.Refresh(context.Background())
	}

	assert.Equal(t, 20, rec.Local().ReadingTimeIndex)
	assert.Equal(t, models.DefaultPreferredHour, rec.Local().DigestTimeIndex)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reconciliations.WithLabelValues("reading_reminder")), 0)
}

func TestView_UnresolvedWhileListFails(t *testing.T) {
	srv := newFakeServer()
	srv.listErr = errors.New("unavailable")
	rec, _ := newReconciler(t, srv, features.Control, true)

	view := rec.View(context.Background())
	assert.Nil(t, view.PersonalizedDigestType)
	assert.False(t, view.ShowDigestHour)

	srv.mu.Lock()
	srv.listErr = nil
	srv.mu.Unlock()

	view = rec.View(context.Background())
	require.NotNil(t, view.PersonalizedDigestType)
	assert.Equal(t, models.SendTypeOff, *view.PersonalizedDigestType)
}

func TestDismissAlert(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.Control, true)

	assert.True(t, rec.View(context.Background()).ShowAlert)

	require.NoError(t, rec.DismissAlert(context.Background()))

	assert.False(t, rec.View(context.Background()).ShowAlert)
	assert.Empty(t, srv.Calls(), "dismissal is neither tracked nor sent to the backend")
	assert.False(t, srv.flag(preferences.AlertPushKey+":"+userID, true))
}

func TestView_CarriesVariants(t *testing.T) {
	srv := newFakeServer()
	rec, _ := newReconciler(t, srv, features.V1, true)

	view := rec.View(context.Background())
	assert.Equal(t, features.V1, view.Variants.ReminderPushCoupling)
	assert.Equal(t, tz, view.Timezone)
	assert.Equal(t, models.DefaultPreferredHour, view.ReadingHour)
}

func TestMutations_StartFromCurrentServerState(t *testing.T) {
	seed := func() *fakeServer {
		srv := newFakeServer()
		srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
			UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 14, SendType: models.SendTypeDaily,
		}
		srv.pushed = true
		return srv
	}

	t.Run("email bundle disables an existing digest", func(t *testing.T) {
		srv := seed()
		rec, _ := newReconciler(t, srv, features.V1, true)

		rec.ToggleEmailBundle(context.Background())

		assert.Equal(t, []string{
			`emit disable notification {"channel":"email","category":["product","marketing","digest"]}`,
			"update marketing=false email=false",
			"unsubscribe digest",
		}, srv.Calls())
		assert.Empty(t, srv.subs)
	})

	t.Run("push toggle disables a subscribed user", func(t *testing.T) {
		srv := seed()
		rec, _ := newReconciler(t, srv, features.V1, true)

		outcome, err := rec.TogglePush(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, models.PushGranted, outcome)

		assert.Equal(t, []string{
			`emit disable notification {"channel":"web","category":"product"}`,
			"push enable=false source=notifications page",
		}, srv.Calls())
		assert.False(t, srv.pushed)
	})

	t.Run("digest cadence carries the stored hour", func(t *testing.T) {
		srv := seed()
		rec, _ := newReconciler(t, srv, features.V1, true)

		require.NoError(t, rec.SetPersonalizedDigestType(context.Background(), models.SendTypeWeekly))

		assert.Equal(t, []string{
			`emit enable notification {"channel":"email","category":"digest"}`,
			`emit schedule digest {"hour":14,"timezone":"Europe/Kyiv","frequency":"weekly"}`,
			"subscribe digest hour=- send=weekly",
		}, srv.Calls())
	})

	t.Run("reading reminder toggle sees the stored reminder", func(t *testing.T) {
		srv := seed()
		srv.subs[models.DigestTypeReadingReminder] = models.PersonalizedDigest{
			UserID: userID, Type: models.DigestTypeReadingReminder, PreferredHour: 6, SendType: models.SendTypeDaily,
		}
		rec, _ := newReconciler(t, srv, features.V1, true)

		assert.False(t, rec.ToggleReadingReminder(context.Background(), nil))
		assert.Contains(t, srv.Calls(), `emit schedule reading reminder {"hour":6,"timezone":"Europe/Kyiv"}`)
	})
}

func TestTogglePush_RequiresLoadedState(t *testing.T) {
	srv := newFakeServer()
	srv.pushErr = errors.New("push service down")
	rec, _ := newReconciler(t, srv, features.Control, true)

	_, err := rec.TogglePush(context.Background(), nil)

	assert.ErrorIs(t, err, preferences.ErrPushNotInitialized)
	assert.Empty(t, srv.Calls())
}

func TestSetCustomTime_InFlightWriteKeepsLocalHour(t *testing.T) {
	srv := newFakeServer()
	srv.subs[models.DigestTypeDigest] = models.PersonalizedDigest{
		UserID: userID, Type: models.DigestTypeDigest, PreferredHour: 10, SendType: models.SendTypeDaily,
	}
	rec, m := newReconciler(t, srv, features.Control, true)
	rec.Refresh(context.Background())

	srv.entered = make(chan struct{})
	srv.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- rec.SetCustomTime(context.Background(), models.DigestTypeDigest, 15)
	}()
	<-srv.entered

	assert.Equal(t, 15, rec.View(context.Background()).DigestHour, "an unchanged server hour does not undo the pending change")

	close(srv.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 15, rec.Local().DigestTimeIndex)
	assert.Equal(t, 15, srv.subs[models.DigestTypeDigest].PreferredHour)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reconciliations.WithLabelValues("digest")), 0)
}
