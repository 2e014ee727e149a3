package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/checkout"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

const (
	addressPath = "/checkout/address"
	successPath = "/checkout/success"
)

func successLocation(orderID uint) string {
	return successPath + "?order_id=" + strconv.FormatUint(uint64(orderID), 10)
}

func (h *handler) getAddress(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	addr, err := h.Checkout.Address(ctx, ct)
	if err != nil && !errors.Is(err, checkout.ErrAddressRequired) {
		writeError(c, err)
		return
	}
	state, err := h.Checkout.State(ctx, ct)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": toAddressView(addr), "state": state})
}

func (h *handler) saveAddress(c *gin.Context) {
	ident, ct, ok := h.openCart(c)
	if !ok {
		return
	}

	var req validation.AddressRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	addr, err := h.Checkout.SaveAddress(c.Request.Context(), ident, ct, checkout.AddressInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Country:    req.Country,
		City:       req.City,
		Area:       req.Area,
		Street:     req.Street,
		Building:   req.Building,
		Apartment:  req.Apartment,
		PostalCode: req.PostalCode,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": toAddressView(addr), "state": checkout.StateAddressCaptured})
}

// review shows the order about to be placed. It does not move the checkout state.
func (h *handler) review(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rev, err := h.Checkout.Preview(ctx, ct)
	if errors.Is(err, checkout.ErrAddressRequired) {
		c.Redirect(http.StatusSeeOther, addressPath)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := h.Checkout.State(ctx, ct)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReview(c, rev, state)
}

// confirmReview records that the shopper reviewed the cart and address (REVIEWED).
func (h *handler) confirmReview(c *gin.Context) {
	_, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	rev, err := h.Checkout.Review(c.Request.Context(), ct)
	if errors.Is(err, checkout.ErrAddressRequired) {
		c.Redirect(http.StatusSeeOther, addressPath)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondReview(c, rev, checkout.StateReviewed)
}

func (h *handler) respondReview(c *gin.Context, rev *checkout.Review, state checkout.State) {
	c.JSON(http.StatusOK, gin.H{
		"cart":    toCartView(&rev.Summary),
		"address": toAddressView(&rev.Address),
		"state":   state,
	})
}

// placeOrder places the caller's cart. With an Idempotency-Key header, retries
// of the same key replay the first outcome instead of placing again.
func (h *handler) placeOrder(c *gin.Context) {
	ident, ct, ok := h.openCart(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	idempKey := c.GetHeader("Idempotency-Key")
	guarded := idempKey != "" && h.Idempotency.Enabled()
	if guarded {
		created, err := h.Idempotency.CreateIfNotExists(ctx, ident.UserID, idempKey)
		if err != nil {
			writeError(c, fmt.Errorf("idempotency create: %w", err))
			return
		}
		if !created {
			h.replayIdempotent(c, ident, idempKey)
			return
		}
	}

	order, err := h.Checkout.PlaceOrder(ctx, ident, ct)
	if err != nil {
		if guarded {
			h.settleFailure(c, ident, idempKey, err)
		}
		if errors.Is(err, checkout.ErrAddressRequired) {
			c.Redirect(http.StatusSeeOther, addressPath)
			return
		}
		writeError(c, err)
		return
	}

	body, err := json.Marshal(toOrderView(order))
	if err != nil {
		writeError(c, fmt.Errorf("marshal order: %w", err))
		return
	}
	if guarded {
		if err := h.Idempotency.MarkDone(ctx, ident.UserID, idempKey, order.ID, string(body), http.StatusCreated); err != nil {
			log.Printf("[checkout] mark idempotency key done failed order=%d: %v", order.ID, err)
		}
	}
	c.Header("Location", successLocation(order.ID))
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// settleFailure records why placement failed. Failures the shopper can fix free the key for reuse.
func (h *handler) settleFailure(c *gin.Context, ident auth.Identity, key string, cause error) {
	ctx := c.Request.Context()
	retryable := errors.Is(cause, checkout.ErrEmptyCart) ||
		errors.Is(cause, checkout.ErrAddressRequired) ||
		errors.Is(cause, cart.ErrNotEditable)
	var err error
	if retryable {
		err = h.Idempotency.Release(ctx, ident.UserID, key)
	} else {
		err = h.Idempotency.MarkFailed(ctx, ident.UserID, key, cause.Error())
	}
	if err != nil {
		log.Printf("[checkout] settle idempotency key failed: %v", err)
	}
}

func (h *handler) replayIdempotent(c *gin.Context, ident auth.Identity, key string) {
	rec, err := h.Idempotency.Get(c.Request.Context(), ident.UserID, key)
	if err != nil {
		writeError(c, fmt.Errorf("idempotency get: %w", err))
		return
	}
	if rec == nil {
		// expired or released between the conditional put and the read
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_key_conflict"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.OrderID != 0 {
			c.Header("Location", successLocation(rec.OrderID))
		}
		if rec.ResponseBody != "" && json.Valid([]byte(rec.ResponseBody)) {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case idempotency.StatusFailed:
		c.JSON(http.StatusConflict, gin.H{"error": "previous_request_failed", "note": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (h *handler) success(c *gin.Context) {
	ident, ok := h.requireIdentity(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Query("order_id"), 10, 64)
	if err != nil || id == 0 {
		writeError(c, orders.ErrOrderNotFound)
		return
	}
	o, err := h.Orders.GetForUser(c.Request.Context(), ident.UserID, uint(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(o))
}
