package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/services"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const accountKey = "account"

// AuthMiddleware checks the Bearer token, loads its account and makes it
// the current account context. Every authenticated request counts as user
// activity for the time tracker.
func AuthMiddleware(secret []byte, users *services.AccountService, accounts *services.AccountDataManager, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := utils.ParseToken(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			utils.Logger.Warn("auth_invalid_token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		account, err := users.Get(c.Request.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, services.ErrAccountNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
				return
			}
			utils.Logger.Error("auth_account_lookup_failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if claims.Version != account.TokenVersion {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session ended, log in again"})
			return
		}

		if accounts.CurrentAccountID() != account.ID {
			if err := users.Activate(c.Request.Context(), account.ID); err != nil {
				utils.Logger.Error("auth_account_switch_failed", zap.String("account_id", account.ID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not switch account"})
				return
			}
		}

		if tracker != nil {
			tracker.Touch()
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// CurrentAccount returns the account set by AuthMiddleware.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}
