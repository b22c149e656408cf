package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthRequired lets the request through only when the session holds a
// backend token.
func AuthRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := Users(c).Token(c.Request.Context())
		if err != nil {
			log.Error("session token read failed", zap.String("session_id", SessionID(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
			return
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Faça login para continuar"})
			return
		}
		c.Set(ctxToken, token)
		c.Next()
	}
}

// RequireAdmin must run after AuthRequired.
func RequireAdmin(c *gin.Context) {
	user := Users(c).Current()
	if user == nil || !user.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acesso restrito a administradores"})
		return
	}
	c.Next()
}
