package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetAlarm(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Alarms.Settings(c.Request.Context(), account.ID))
}

func (h *Handler) PutAlarm(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	input := h.Alarms.Settings(ctx, account.ID)
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "save_alarm", err)
		return
	}
	if err := h.Alarms.Save(ctx, account.ID, input); err != nil {
		fail(c, "save_alarm", err)
		return
	}
	c.JSON(http.StatusOK, input)
}
