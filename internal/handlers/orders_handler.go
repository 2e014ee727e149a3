package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/middleware"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

func (h *handler) requireIdentity(c *gin.Context) (auth.Identity, bool) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return ident, ok
}

func (h *handler) listOrders(c *gin.Context) {
	ident, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	list, err := h.Orders.ListForUser(c.Request.Context(), ident.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *handler) getOrder(c *gin.Context) {
	ident, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		writeError(c, orders.ErrOrderNotFound)
		return
	}
	o, err := h.Orders.GetForUser(c.Request.Context(), ident.UserID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(o))
}
