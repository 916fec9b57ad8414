package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the JSON API on top of the services.
type Handler struct {
	Users     *services.AccountService
	Accounts  *services.AccountDataManager
	Prefs     *services.PreferenceService
	Activity  *services.ActivityService
	Times     *services.TimeService
	Goals     *services.GoalService
	Alarms    *services.AlarmService
	Dashboard *services.DashboardService
	Tracker   *services.Tracker
	Store     cache.Store
	Location  *time.Location
	Now       func() time.Time
}

func (h *Handler) today() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().In(h.Location)
}

// account returns the authenticated account or answers 401.
func (h *Handler) account(c *gin.Context) (*models.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return account, true
}

// invalidate drops cached views after a write.
func (h *Handler) invalidate(ctx context.Context, accountID string) {
	middleware.InvalidateAccountCache(ctx, h.Store, accountID)
	h.Dashboard.Invalidate(ctx, accountID)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidCount),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrUnknownPeriod):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrNoAccountContext):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPasswordRequired):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoFreeSlot):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the status matching err. Unexpected errors are logged
// and counted; their details stay out of the response.
func fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.ErrorCount.WithLabelValues(op, "internal").Inc()
		utils.Logger.Error(op+"_failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	utils.Logger.Warn(op+"_rejected", zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, op string, err error) {
	utils.Logger.Warn(op+"_invalid_body", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}
