package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/guestcart"
	"github.com/imrishuroy/go-storefront/internal/middleware"
)

func (h *handler) guestEnabled(c *gin.Context) bool {
	if !h.GuestCarts.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "guest_cart_unavailable"})
		return false
	}
	return true
}

func (h *handler) respondGuestCart(c *gin.Context, snap *guestcart.Snapshot) {
	ids := make([]uint, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := h.Catalog.ByIDs(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGuestCartView(snap, products))
}

func (h *handler) getGuestCart(c *gin.Context) {
	if !h.guestEnabled(c) {
		return
	}
	snap, err := h.GuestCarts.Get(c.Request.Context(), middleware.GuestSessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondGuestCart(c, snap)
}

// guestMutation applies op to the session snapshot. Products are checked to exist
// only when requireProduct is set, so stale lines can still be removed.
func (h *handler) guestMutation(requireProduct bool, op func(s *guestcart.Snapshot, productID uint, qty int)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.guestEnabled(c) {
			return
		}
		productID, ok := idParam(c, "product_id")
		if !ok {
			writeError(c, catalog.ErrProductNotFound)
			return
		}
		if requireProduct {
			if _, err := h.Catalog.Get(c.Request.Context(), productID); err != nil {
				writeError(c, err)
				return
			}
		}
		qty := quantityParam(c)
		snap, err := h.GuestCarts.Mutate(c.Request.Context(), middleware.GuestSessionID(c), func(s *guestcart.Snapshot) {
			op(s, productID, qty)
		})
		if err != nil {
			writeError(c, err)
			return
		}
		h.respondGuestCart(c, snap)
	}
}

func guestAdd(s *guestcart.Snapshot, productID uint, qty int) { s.Add(productID, qty) }

func guestIncrement(s *guestcart.Snapshot, productID uint, _ int) { s.Increment(productID) }

func guestDecrement(s *guestcart.Snapshot, productID uint, _ int) { s.Decrement(productID) }

func guestRemove(s *guestcart.Snapshot, productID uint, _ int) { s.Remove(productID) }

func (h *handler) clearGuestCart(c *gin.Context) {
	if !h.guestEnabled(c) {
		return
	}
	snap, err := h.GuestCarts.Mutate(c.Request.Context(), middleware.GuestSessionID(c), func(s *guestcart.Snapshot) {
		s.Clear()
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondGuestCart(c, snap)
}
