package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/checkout"
	"github.com/imrishuroy/go-storefront/internal/guestcart"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// HandlerConfig groups dependencies for the storefront routes.
// GuestCarts and Idempotency may be nil; the features they back are then disabled.
type HandlerConfig struct {
	Catalog     *catalog.Store
	Carts       *cart.Store
	Orders      *orders.Store
	Checkout    *checkout.Service
	GuestCarts  *guestcart.Store
	Idempotency *idempotency.Store
	Sessions    sessions.Store
	JWTSecret   []byte
	CORSOrigins []string
}

type handler struct {
	HandlerConfig
	v *validatorv10.Validate
}

func newHandler(cfg HandlerConfig) *handler {
	return &handler{HandlerConfig: cfg, v: validation.New()}
}

// writeError maps domain errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
	case errors.Is(err, cart.ErrNotEditable):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart_not_editable"})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, catalog.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": map[string]string{"unit_price": "nonnegative_money"},
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "cart_empty"})
	case errors.Is(err, checkout.ErrAddressRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "address_required"})
	case errors.Is(err, orders.ErrCustomerConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "customer_conflict"})
	case errors.Is(err, guestcart.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent_update"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// idParam parses a positive numeric path parameter. Anything else is reported as not found.
func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
