package routes

import (
	"net/http"
	"time"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/handlers/admin"
	"pisos_storefront/internal/handlers/payment"
	"pisos_storefront/internal/handlers/product"
	"pisos_storefront/internal/handlers/user"
	"pisos_storefront/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps holds everything the routes are wired to.
type Deps struct {
	Store          *cache.Store
	Session        middleware.SessionOptions
	AllowedOrigins []string
	Log            *zap.Logger

	Products *product.Handler
	Auth     *user.AuthHandler
	Cart     *user.CartHandler
	Orders   *user.OrderHandler
	Socket   *user.SessionSocket
	Payment  *payment.Handler
	Admin    *admin.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Stripe calls this one without a browser session.
	r.POST("/api/payment/webhook", d.Payment.Webhook)

	api := r.Group("/api", middleware.Session(d.Store, d.Session, d.Log))
	auth := middleware.AuthRequired(d.Log)

	// Catalog
	api.GET("/products", d.Products.List)
	api.GET("/products/:id", d.Products.Get)
	api.GET("/banners", d.Products.Banners)
	api.GET("/search/filters", d.Products.GetFilters)
	api.PUT("/search/filters", d.Products.PutFilters)
	api.DELETE("/search/filters/:dimension", d.Products.ClearFilter)

	// Accounts
	api.POST("/auth/login", middleware.LoginRateLimit(d.Store, d.Log), d.Auth.Login)
	api.POST("/auth/register", middleware.RegisterRateLimit(d.Store, d.Log), d.Auth.Register)
	api.POST("/auth/logout", d.Auth.Logout)
	api.GET("/auth/me", d.Auth.Me)
	api.GET("/session/ws", d.Socket.Serve)

	// Cart
	api.GET("/cart", d.Cart.Get)
	api.POST("/cart/items", d.Cart.Add)
	api.POST("/cart/items/:id/increase", d.Cart.Increase)
	api.POST("/cart/items/:id/decrease", d.Cart.Decrease)
	api.DELETE("/cart/items/:id", d.Cart.Remove)
	api.DELETE("/cart", d.Cart.Clear)

	// Checkout and payment
	api.POST("/checkout/freight", d.Payment.Freight)
	api.POST("/checkout", d.Payment.Checkout)
	api.POST("/payment", d.Payment.Pay)
	api.GET("/payment/result", d.Payment.Result)

	// Orders
	api.GET("/orders/me", auth, d.Orders.Mine)
	api.GET("/orders/me/:id", auth, d.Orders.MineByID)

	adminGroup := api.Group("/admin", auth, middleware.RequireAdmin)
	{
		adminGroup.GET("/orders", d.Admin.Orders)
		adminGroup.PATCH("/orders/:id", d.Admin.UpdateOrderStatus)
		adminGroup.POST("/products/images", d.Admin.UploadImage)
	}
}
