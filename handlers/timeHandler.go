package handlers

import (
	"net/http"
	"strconv"

	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) RecordTime(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	var input struct {
		Seconds int `json:"seconds" validate:"gt=0,lte=86400"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "record_time", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "record_time", err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Times.RecordTimeSpent(ctx, account.ID, input.Seconds); err != nil {
		fail(c, "record_time", err)
		return
	}
	h.Dashboard.Invalidate(ctx, account.ID)
	c.JSON(http.StatusOK, gin.H{"message": "time recorded", "seconds": input.Seconds})
}

func (h *Handler) GetTime(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"time": h.Times.GetTimeTrackingData(c.Request.Context(), account.ID)})
}

func (h *Handler) GetTimeStats(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Times.Stats(c.Request.Context(), account.ID))
}

func (h *Handler) GetTimeCalendar(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	today := h.today()
	year := today.Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		year = y
	}

	data := h.Times.GetTimeTrackingData(c.Request.Context(), account.ID)
	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"years":  services.YearOptions(data, today),
		"months": services.YearCalendar(data, year, today),
	})
}

// Heartbeat marks the user as active; the auth middleware has already
// touched the tracker.
func (h *Handler) Heartbeat(c *gin.Context) {
	if _, ok := h.account(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
