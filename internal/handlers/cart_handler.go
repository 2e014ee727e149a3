package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/middleware"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// openCart resolves the caller's OPENED cart. It writes the error response itself.
func (h *handler) openCart(c *gin.Context) (auth.Identity, *cart.Cart, bool) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return ident, nil, false
	}
	ct, err := h.Carts.Resolve(c.Request.Context(), ident.UserID)
	if err != nil {
		writeError(c, err)
		return ident, nil, false
	}
	return ident, ct, true
}

func (h *handler) respondCart(c *gin.Context, ct *cart.Cart) {
	sum, err := h.Carts.Summary(c.Request.Context(), ct)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(sum))
}

func (h *handler) getCart(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	h.respondCart(c, ct)
}

func (h *handler) cartCount(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	n, err := h.Carts.ItemCount(c.Request.Context(), ct)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart_count": n})
}

// cartMutation adapts a per-product cart operation into a handler.
func (h *handler) cartMutation(op func(c *gin.Context, ct *cart.Cart, productID uint) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "product_id")
		if !ok {
			writeError(c, catalog.ErrProductNotFound)
			return
		}
		_, ct, ok := h.openCart(c)
		if !ok {
			return
		}
		if err := op(c, ct, productID); err != nil {
			writeError(c, err)
			return
		}
		h.respondCart(c, ct)
	}
}

func (h *handler) addToCart(c *gin.Context, ct *cart.Cart, productID uint) error {
	return h.Carts.Add(c.Request.Context(), ct, productID, quantityParam(c))
}

func (h *handler) incrementLine(c *gin.Context, ct *cart.Cart, productID uint) error {
	return h.Carts.Increment(c.Request.Context(), ct, productID)
}

func (h *handler) decrementLine(c *gin.Context, ct *cart.Cart, productID uint) error {
	return h.Carts.Decrement(c.Request.Context(), ct, productID)
}

func (h *handler) removeLine(c *gin.Context, ct *cart.Cart, productID uint) error {
	return h.Carts.Remove(c.Request.Context(), ct, productID)
}

func (h *handler) clearCart(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	if err := h.Carts.Clear(c.Request.Context(), ct); err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, ct)
}

// mergeGuestCart folds the guest session's snapshot into the caller's cart.
func (h *handler) mergeGuestCart(c *gin.Context) {
	ident, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	if sid := middleware.GuestSessionID(c); sid != "" && h.GuestCarts.Enabled() {
		n, err := h.GuestCarts.MergeInto(c.Request.Context(), sid, h.Carts, ct)
		if err != nil {
			writeError(c, err)
			return
		}
		if n > 0 {
			c.Header("X-Merged-Lines", fmt.Sprint(n))
		}
		log.Printf("[cart] merged %d guest lines into cart=%d user=%d", n, ct.ID, ident.UserID)
	}
	h.respondCart(c, ct)
}

type quantityBody struct {
	Quantity interface{} `json:"quantity"`
}

// quantityParam reads "quantity" from a JSON body, the form or the query string.
// Missing or malformed values become 1.
func quantityParam(c *gin.Context) int {
	if strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		var body quantityBody
		if err := c.ShouldBindJSON(&body); err == nil && body.Quantity != nil {
			return validation.ParseQuantity(fmt.Sprint(body.Quantity))
		}
		return 1
	}
	if raw, ok := c.GetPostForm("quantity"); ok {
		return validation.ParseQuantity(raw)
	}
	return validation.ParseQuantity(c.Query("quantity"))
}
