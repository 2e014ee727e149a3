package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/middleware"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

func (h *handler) listProducts(c *gin.Context) {
	f := catalog.Filter{Query: c.Query("q")}
	if n, err := strconv.ParseUint(c.Query("collection_id"), 10, 64); err == nil {
		f.CollectionID = uint(n)
	}
	if n, err := strconv.ParseUint(c.Query("brand_id"), 10, 64); err == nil {
		f.BrandID = uint(n)
	}

	products, err := h.Catalog.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handler) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		writeError(c, catalog.ErrProductNotFound)
		return
	}
	p, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handler) updateProduct(c *gin.Context) {
	ident, _ := middleware.IdentityFrom(c)
	if !ident.Staff {
		writeError(c, catalog.ErrForbidden)
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		writeError(c, catalog.ErrProductNotFound)
		return
	}

	var req validation.ProductUpdateRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	p, err := h.Catalog.Update(c.Request.Context(), ident.Staff, id, catalog.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Inventory:   req.Inventory,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handler) listCollections(c *gin.Context) {
	cols, err := h.Catalog.Collections(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": cols})
}
