package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/gin-gonic/gin"
)

// ListData returns the logical keys stored for the account.
func (h *Handler) ListData(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	keys, err := h.Accounts.Keys(c.Request.Context(), account.ID)
	if err != nil {
		fail(c, "list_data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (h *Handler) GetData(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	key := c.Param("key")

	raw, err := h.Accounts.GetRaw(c.Request.Context(), key, account.ID)
	if err != nil {
		fail(c, "get_data", err)
		return
	}
	if raw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for key", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "data": raw})
}

func (h *Handler) PutData(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	key := c.Param("key")

	var input struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "put_data", err)
		return
	}
	if len(input.Data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data is required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Accounts.Store(ctx, key, input.Data, account.ID); err != nil {
		fail(c, "put_data", err)
		return
	}
	if services.IsSessionKey(key) {
		h.Accounts.SyncSession(ctx, account.ID, key, input.Data)
	}

	c.JSON(http.StatusOK, gin.H{"message": "stored", "key": key})
}

func (h *Handler) DeleteData(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	key := c.Param("key")

	if err := h.Accounts.Delete(c.Request.Context(), key, account.ID); err != nil {
		fail(c, "delete_data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "key": key})
}
