package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/middleware"
)

// NewRouter builds the storefront engine with all routes registered.
func NewRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method_not_allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterRoutes(r, cfg)
	return r
}

// RegisterRoutes registers catalog, cart, checkout and order routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := newHandler(cfg)
	requireAuth := middleware.RequireAuth(cfg.JWTSecret)

	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)
	r.POST("/products/:id", requireAuth, h.updateProduct)
	r.GET("/collections", h.listCollections)

	carts := r.Group("/cart", requireAuth)
	carts.GET("", h.getCart)
	carts.GET("/count", h.cartCount)
	carts.POST("/add/:product_id", h.cartMutation(h.addToCart))
	carts.POST("/increment/:product_id", h.cartMutation(h.incrementLine))
	carts.POST("/decrement/:product_id", h.cartMutation(h.decrementLine))
	carts.POST("/remove/:product_id", h.cartMutation(h.removeLine))
	carts.POST("/clear", h.clearCart)

	if cfg.Sessions != nil {
		guestSession := middleware.GuestSession(cfg.Sessions)
		carts.POST("/merge", guestSession, h.mergeGuestCart)

		guest := r.Group("/guest/cart", guestSession)
		guest.GET("", h.getGuestCart)
		guest.POST("/add/:product_id", h.guestMutation(true, guestAdd))
		guest.POST("/increment/:product_id", h.guestMutation(true, guestIncrement))
		guest.POST("/decrement/:product_id", h.guestMutation(false, guestDecrement))
		guest.POST("/remove/:product_id", h.guestMutation(false, guestRemove))
		guest.POST("/clear", h.clearGuestCart)
	} else {
		carts.POST("/merge", h.mergeGuestCart)
	}

	co := r.Group("/checkout", requireAuth)
	co.GET("/address", h.getAddress)
	co.POST("/address", h.saveAddress)
	co.GET("/review", h.review)
	co.POST("/review", h.confirmReview)
	co.POST("/place-order", h.placeOrder)
	co.GET("/success", h.success)

	ord := r.Group("/orders", requireAuth)
	ord.GET("", h.listOrders)
	ord.GET("/:id", h.getOrder)
}
