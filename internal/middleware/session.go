package middleware

import (
	"net/http"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookie = "pisos_session"

	ctxSessionID = "session_id"
	ctxStorage   = "session_storage"
	ctxUsers     = "session_users"
	ctxToken     = "auth_token"
)

type SessionOptions struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Session resolves the browser session from its cookie, issuing a new one
// when the cookie is missing or invalid, and loads its user.
func Session(store *cache.Store, opts SessionOptions, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := ""
		if raw, err := c.Cookie(SessionCookie); err == nil {
			if parsed, err := utils.ParseSessionJWT(opts.Secret, raw); err == nil {
				sid = parsed
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			tok, err := utils.GenerateSessionJWT(opts.Secret, sid, opts.TTL)
			if err != nil {
				log.Error("session token signing failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erro ao iniciar sessão"})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, tok, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		}

		storage := store.Session(sid)
		users := cache.NewUserStore(storage, log)
		if err := users.Load(c.Request.Context()); err != nil {
			log.Warn("session user load failed", zap.String("session_id", sid), zap.Error(err))
		}

		c.Set(ctxSessionID, sid)
		c.Set(ctxStorage, storage)
		c.Set(ctxUsers, users)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

// Storage returns the session storage set by Session.
func Storage(c *gin.Context) *cache.SessionStorage {
	s, _ := c.MustGet(ctxStorage).(*cache.SessionStorage)
	return s
}

func Users(c *gin.Context) *cache.UserStore {
	u, _ := c.MustGet(ctxUsers).(*cache.UserStore)
	return u
}

// Token returns the backend token checked by AuthRequired.
func Token(c *gin.Context) string {
	return c.GetString(ctxToken)
}
