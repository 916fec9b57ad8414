package handlers

import (
	"net/http"

	"github.com/StartUpFoundee/mantra-verse-counter-32/middleware"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ListAccounts(c *gin.Context) {
	slots, err := h.Users.Slots(c.Request.Context())
	if err != nil {
		fail(c, "list_accounts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "current_account_id": h.Accounts.CurrentAccountID()})
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var input services.CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "create_account", err)
		return
	}

	sess, err := h.Users.Create(c.Request.Context(), input)
	if err != nil {
		fail(c, "create_account", err)
		return
	}
	if h.Tracker != nil {
		h.Tracker.Touch()
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account created",
		"account": sess.Account,
		"token":   sess.Token,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Slot     int    `json:"slot" validate:"min=1,max=3"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "login", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "login", err)
		return
	}

	sess, err := h.Users.Login(c.Request.Context(), input.Slot, input.Password)
	if err != nil {
		fail(c, "login", err)
		return
	}
	if h.Tracker != nil {
		h.Tracker.Touch()
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"account": sess.Account,
		"token":   sess.Token,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	if err := h.Users.Logout(c.Request.Context(), account.ID); err != nil {
		fail(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) GetMe(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) DeleteMe(c *gin.Context) {
	account, ok := h.account(c)
	if !ok {
		return
	}

	var input struct {
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "delete_account", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "delete_account", err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Users.Delete(ctx, account.ID, input.Password); err != nil {
		fail(c, "delete_account", err)
		return
	}
	h.invalidate(ctx, account.ID)

	utils.Logger.Info("account_delete_success", zap.String("account_id", account.ID))
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *Handler) GetOnboarding(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seen": h.Prefs.OnboardingSeen(c.Request.Context())})
}

func (h *Handler) PutOnboarding(c *gin.Context) {
	var input struct {
		Seen *bool `json:"seen" validate:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "onboarding", err)
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		badRequest(c, "onboarding", err)
		return
	}

	if err := h.Prefs.SetOnboardingSeen(c.Request.Context(), *input.Seen); err != nil {
		fail(c, "onboarding", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seen": *input.Seen})
}
