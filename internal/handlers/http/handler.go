package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/Nazarious-ucu/notification-preferences/internal/preferences"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	timeoutDuration = 10 * time.Second

	HeaderUserID        = "X-User-ID"
	HeaderPushSupported = "X-Push-Supported"
)

var errMissingUser = errors.New("missing " + HeaderUserID + " header")

type sessionProvider interface {
	Session(ctx context.Context, userID string, pushSupported bool) (*preferences.Reconciler, error)
}

type Handler struct {
	sessions sessionProvider
	log      zerolog.Logger
	m        *metrics.Metrics
}

func NewHandler(sessions sessionProvider, logger zerolog.Logger, m *metrics.Metrics) *Handler {
	logger = logger.With().Str("component", "PreferencesHandler").Logger()
	return &Handler{sessions: sessions, log: logger, m: m}
}

// Register mounts the preference routes on group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("", h.GetPreferences)
	group.POST("/email/toggle", h.ToggleEmail)
	group.POST("/email/:field/toggle", h.ToggleEmailField)
	group.PUT("/digest/type", h.SetDigestType)
	group.PUT("/hours/:kind", h.SetCustomTime)
	group.PUT("/reading-reminder", h.SetReadingReminder)
	group.POST("/push/toggle", h.TogglePush)
	group.POST("/alert/dismiss", h.DismissAlert)
}

type digestTypeRequest struct {
	SendType string `json:"sendType" binding:"required"`
}

type hourRequest struct {
	Hour *int `json:"hour" binding:"required"`
}

type readingReminderRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type pushRequest struct {
	Enabled *bool            `json:"enabled"`
	Keys    *models.PushKeys `json:"keys"`
}

type pushResponse struct {
	Outcome models.PushOutcome `json:"outcome"`
	View    preferences.View   `json:"view"`
}

// GetPreferences
// @Summary Get notification preferences
// @Description Returns the reconciled notification settings of the user.
// @Tags preferences
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param X-Push-Supported header bool false "Whether the client supports web push"
// @Success 200 {object} preferences.View
// @Failure 401
// @Failure 404
// @Router /notifications [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec.View(ctx))
}

// ToggleEmail
// @Summary Toggle all email notifications
// @Description Flips marketing and product emails together and subscribes or removes the weekly digest.
// @Tags preferences
// @Produce json
// @Param X-User-ID header string true "User id"
// @Success 200 {object} preferences.View
// @Failure 401
// @Failure 404
// @Router /notifications/email/toggle [post]
func (h *Handler) ToggleEmail(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	rec.ToggleEmailBundle(ctx)
	c.JSON(http.StatusOK, rec.View(ctx))
}

// ToggleEmailField
// @Summary Toggle one email preference
// @Tags preferences
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param field path string true "Email field" Enums(notificationEmail, acceptedMarketing)
// @Success 200 {object} preferences.View
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /notifications/email/{field}/toggle [post]
func (h *Handler) ToggleEmailField(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	if err := rec.ToggleEmailField(ctx, models.EmailField(c.Param("field"))); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.View(ctx))
}

// SetDigestType
// @Summary Set the personalized digest cadence
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param body body digestTypeRequest true "Cadence" Enums(workdays, weekly, off)
// @Success 200 {object} preferences.View
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /notifications/digest/type [put]
func (h *Handler) SetDigestType(c *gin.Context) {
	var req digestTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "sendType is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	if err := rec.SetPersonalizedDigestType(ctx, models.SendType(req.SendType)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.View(ctx))
}

// SetCustomTime
// @Summary Set the preferred hour of the digest or the reading reminder
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param kind path string true "Subscription" Enums(digest, reading-reminder)
// @Param body body hourRequest true "Hour 0-23"
// @Success 200 {object} preferences.View
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /notifications/hours/{kind} [put]
func (h *Handler) SetCustomTime(c *gin.Context) {
	kind, err := parseKind(c.Param("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req hourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "hour is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	if err := rec.SetCustomTime(ctx, kind, *req.Hour); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.View(ctx))
}

// SetReadingReminder
// @Summary Enable or disable the reading reminder
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param body body readingReminderRequest true "Target state"
// @Success 200 {object} preferences.View
// @Failure 400
// @Failure 401
// @Failure 404
// @Router /notifications/reading-reminder [put]
func (h *Handler) SetReadingReminder(c *gin.Context) {
	var req readingReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "enabled is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	rec.SetReadingReminder(ctx, *req.Enabled)
	c.JSON(http.StatusOK, rec.View(ctx))
}

// TogglePush
// @Summary Toggle web push notifications
// @Description Without "enabled" the current push state is flipped. The permission outcome is returned with the new view.
// @Tags preferences
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User id"
// @Param X-Push-Supported header bool false "Whether the client supports web push"
// @Param body body pushRequest false "Target state and browser subscription keys"
// @Success 200 {object} pushResponse
// @Failure 400
// @Failure 401
// @Failure 404
// @Failure 409
// @Failure 503
// @Router /notifications/push/toggle [post]
func (h *Handler) TogglePush(c *gin.Context) {
	var req pushRequest
	// an empty body, chunked or not, means "flip the current state"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "invalid push request")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}

	var (
		outcome models.PushOutcome
		err     error
	)
	if req.Enabled != nil {
		outcome, err = rec.SetPushAndReminder(ctx, *req.Enabled, req.Keys)
	} else {
		outcome, err = rec.TogglePush(ctx, req.Keys)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pushResponse{Outcome: outcome, View: rec.View(ctx)})
}

// DismissAlert
// @Summary Hide the push notification banner
// @Tags preferences
// @Param X-User-ID header string true "User id"
// @Success 204
// @Failure 401
// @Failure 404
// @Failure 500
// @Router /notifications/alert/dismiss [post]
func (h *Handler) DismissAlert(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	rec, ok := h.session(ctx, c)
	if !ok {
		return
	}
	if err := rec.DismissAlert(ctx); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(ctx context.Context, c *gin.Context) (*preferences.Reconciler, bool) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		h.fail(c, errMissingUser)
		return nil, false
	}
	pushSupported, _ := strconv.ParseBool(c.GetHeader(HeaderPushSupported))

	rec, err := h.sessions.Session(ctx, userID, pushSupported)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.m.BusinessErrors.WithLabelValues("validation_error", "warning").Inc()
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errMissingUser):
		h.m.BusinessErrors.WithLabelValues("unauthenticated", "warning").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserNotFound):
		h.m.BusinessErrors.WithLabelValues("user_not_found", "warning").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrUnknownKind),
		errors.Is(err, models.ErrUnknownSendType),
		errors.Is(err, models.ErrInvalidHour):
		h.badRequest(c, err.Error())
	case errors.Is(err, preferences.ErrPushNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, preferences.ErrSuperseded):
		h.m.BusinessErrors.WithLabelValues("superseded", "info").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		h.m.TechnicalErrors.WithLabelValues("handler_error", "critical").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseKind(raw string) (models.DigestType, error) {
	switch raw {
	case "digest":
		return models.DigestTypeDigest, nil
	case "reading-reminder", string(models.DigestTypeReadingReminder):
		return models.DigestTypeReadingReminder, nil
	default:
		return "", models.ErrUnknownKind
	}
}
