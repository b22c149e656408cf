package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pisos_storefront/internal/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
)

// LoginRateLimit counts failed logins per email and locks the email out for
// LoginCooldown after LoginMaxAttempts failures.
func LoginRateLimit(store *cache.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(input.Email))
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		if locked, _ := store.HasFlag(ctx, cooldownKey); locked {
			ttl, _ := store.TTL(ctx, cooldownKey)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Muitas tentativas. Tente novamente em %d minutos", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		attempts, _ := store.Counter(ctx, key)
		if attempts >= LoginMaxAttempts {
			if err := store.SetFlag(ctx, cooldownKey, LoginCooldown); err != nil {
				log.Warn("login cooldown not stored", zap.Error(err))
			}
			_ = store.Reset(ctx, key)
			log.Warn("login locked", zap.String("email", email))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Muitas tentativas. Conta bloqueada por %d minutos", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := store.Increment(ctx, key, LoginCooldown); err != nil {
				log.Warn("login attempt not counted", zap.Error(err))
			}
		case http.StatusOK:
			_ = store.Reset(ctx, key, cooldownKey)
		}
	}
}

// RegisterRateLimit caps successful registrations per client IP.
func RegisterRateLimit(store *cache.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "register_attempts:" + c.ClientIP()

		attempts, _ := store.Counter(ctx, key)
		if attempts >= RegisterMaxAttempts {
			ttl, _ := store.TTL(ctx, key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Muitos cadastros. Tente novamente em %d minutos", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			if _, err := store.Increment(ctx, key, RegisterCooldown); err != nil {
				log.Warn("registration not counted", zap.Error(err))
			}
		}
	}
}
