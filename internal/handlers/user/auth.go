package user

import (
	"context"
	"errors"
	"net/http"

	"pisos_storefront/internal/middleware"
	"pisos_storefront/internal/models"
	"pisos_storefront/internal/services/backend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Accounts interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error)
	Register(ctx context.Context, reg models.Registration) error
}

type AuthHandler struct {
	accounts Accounts
	log      *zap.Logger
}

func NewAuthHandler(accounts Accounts, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mail e senha são obrigatórios"})
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), creds)
	if err != nil {
		status := backend.StatusOf(err)
		switch {
		case status == http.StatusUnauthorized || status == http.StatusNotFound || status == http.StatusBadRequest:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "E-mail ou senha inválidos"})
		case errors.Is(err, backend.ErrNoToken):
			h.log.Error("login returned no token")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível entrar agora"})
		default:
			h.log.Error("login failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível entrar agora"})
		}
		return
	}

	if err := middleware.Users(c).Login(c.Request.Context(), res); err != nil {
		h.log.Error("session login failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}

	h.log.Info("user logged in", zap.String("user_id", res.UserID), zap.String("session_id", middleware.SessionID(c)))
	c.JSON(http.StatusOK, gin.H{"user": res.User, "userId": res.UserID})
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados de cadastro inválidos"})
		return
	}

	if err := h.accounts.Register(c.Request.Context(), reg); err != nil {
		var be *backend.Error
		if errors.As(err, &be) && be.Status >= 400 && be.Status < 500 {
			msg := be.Message
			if msg == "" {
				msg = "Não foi possível concluir o cadastro"
			}
			c.JSON(be.Status, gin.H{"error": msg})
			return
		}
		h.log.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível concluir o cadastro"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Cadastro realizado com sucesso"})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Users(c).Logout(c.Request.Context()); err != nil {
		h.log.Error("logout failed", zap.String("session_id", middleware.SessionID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sessão indisponível"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.Users(c).Current()
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil, "admin": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "admin": user.IsAdmin()})
}
