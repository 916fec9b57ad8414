package handlers

import (
	"net/http"

	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetGoals(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": h.Goals.AllProgress(c.Request.Context(), account.ID)})
}

func (h *Handler) PutGoal(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	period, err := services.ParsePeriod(c.Param("period"))
	if err != nil {
		fail(c, "save_goal", err)
		return
	}

	var input struct {
		Target   int    `json:"target" validate:"gt=0"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "save_goal", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "save_goal", err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Goals.SaveGoal(ctx, account.ID, period, input.Target, input.Password); err != nil {
		fail(c, "save_goal", err)
		return
	}
	h.invalidate(ctx, account.ID)

	c.JSON(http.StatusOK, gin.H{"goal": h.Goals.Progress(ctx, account.ID, period)})
}
