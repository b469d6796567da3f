//go:build unit

package push_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/Nazarious-ucu/notification-preferences/internal/services/push"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, sub models.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var keys = &models.PushKeys{Endpoint: "https://push.example/abc", P256DH: "p256", Auth: "auth"}

func newBridge(store *mockStore) *push.Bridge {
	return push.NewBridge(store, zerolog.Nop(), metrics.NewMetrics("push_test", nil, "test"))
}

func request(enable, supported bool, k *models.PushKeys) models.PushRequest {
	return models.PushRequest{
		UserID:    "u1",
		Source:    models.PromptSourceNotificationsPage,
		Enable:    enable,
		Supported: supported,
		Keys:      k,
	}
}

func TestRequestToggle_Unsupported(t *testing.T) {
	store := &mockStore{}
	outcome, err := newBridge(store).RequestToggle(context.Background(), request(true, false, keys))

	require.NoError(t, err)
	assert.Equal(t, models.PushUnsupported, outcome)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRequestToggle_EnableSavesKeys(t *testing.T) {
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.MatchedBy(func(s models.PushSubscription) bool {
		return s.UserID == "u1" && s.Endpoint == keys.Endpoint && s.P256DH == keys.P256DH && s.Auth == keys.Auth
	})).Return(nil).Once()

	outcome, err := newBridge(store).RequestToggle(context.Background(), request(true, true, keys))

	require.NoError(t, err)
	assert.Equal(t, models.PushGranted, outcome)
	store.AssertExpectations(t)
}

func TestRequestToggle_EnableWithoutKeysIsDenied(t *testing.T) {
	store := &mockStore{}
	outcome, err := newBridge(store).RequestToggle(context.Background(), request(true, true, &models.PushKeys{Endpoint: "x"}))

	require.NoError(t, err)
	assert.Equal(t, models.PushDenied, outcome)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRequestToggle_Disable(t *testing.T) {
	store := &mockStore{}
	store.On("Delete", mock.Anything, "u1").Return(nil).Once()

	outcome, err := newBridge(store).RequestToggle(context.Background(), request(false, true, nil))

	require.NoError(t, err)
	assert.Equal(t, models.PushGranted, outcome)
	store.AssertExpectations(t)
}

func TestRequestToggle_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("Delete", mock.Anything, "u1").Return(errors.New("db locked")).Once()

	_, err := newBridge(store).RequestToggle(context.Background(), request(false, true, nil))
	assert.Error(t, err)
}

func TestIsSubscribed(t *testing.T) {
	store := &mockStore{}
	store.On("Exists", mock.Anything, "u1").Return(true, nil).Once()

	ok, err := newBridge(store).IsSubscribed(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
