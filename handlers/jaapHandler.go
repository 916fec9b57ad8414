package handlers

import (
	"net/http"
	"strconv"

	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) RecordJaaps(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	var input struct {
		Count int `json:"count" validate:"gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "record_jaaps", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "record_jaaps", err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.Activity.RecordDailyActivity(ctx, account.ID, input.Count)
	if err != nil {
		fail(c, "record_jaaps", err)
		return
	}
	h.invalidate(ctx, account.ID)

	alarm := h.Alarms.Settings(ctx, account.ID)
	c.JSON(http.StatusOK, gin.H{
		"result": res,
		"level":  services.ClassifyLevel(res.Count, services.SpiritualLevels),
		"alert":  alarm.ShouldAlert(res.Previous, res.Count),
	})
}

func (h *Handler) GetActivity(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	today, err := h.Activity.TodayCount(ctx, account.ID)
	if err != nil {
		fail(c, "get_activity", err)
		return
	}
	lifetime, err := h.Activity.LifetimeCount(ctx, account.ID)
	if err != nil {
		fail(c, "get_activity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": h.Activity.GetActivityData(ctx, account.ID),
		"today":    today,
		"lifetime": lifetime,
	})
}

func (h *Handler) GetStreak(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Activity.StreakData(c.Request.Context(), account.ID))
}

func (h *Handler) GetActivityCalendar(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer <= 0"})
		return
	}

	data := h.Activity.GetActivityData(c.Request.Context(), account.ID)
	c.JSON(http.StatusOK, services.MonthCalendar(data, h.today(), offset))
}

func (h *Handler) GetLevels(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	today, err := h.Activity.TodayCount(ctx, account.ID)
	if err != nil {
		fail(c, "get_levels", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"levels":       services.SpiritualLevels,
		"current":      services.ClassifyLevel(today, services.SpiritualLevels),
		"today_count":  today,
		"distribution": services.LevelDistribution(h.Activity.GetActivityData(ctx, account.ID), services.SpiritualLevels),
	})
}
