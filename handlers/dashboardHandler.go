package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetDashboard(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	d, err := h.Dashboard.Build(c.Request.Context(), account.ID)
	if err != nil {
		fail(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}
