package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/http/middleware"
	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/notify"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

type CartHandler struct {
	cart *usecase.CartService
	hub  *notify.Hub
}

func NewCartHandler(cart *usecase.CartService, hub *notify.Hub) *CartHandler {
	return &CartHandler{cart: cart, hub: hub}
}

type cartResp struct {
	Items           []domain.CartItem `json:"items"`
	CouponCode      string            `json:"couponCode,omitempty"`
	CouponDiscount  decimal.Decimal   `json:"couponDiscount"`
	Total           decimal.Decimal   `json:"total"`
	DiscountedTotal decimal.Decimal   `json:"discountedTotal"`
}

func toCartResp(c domain.Cart) cartResp {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResp{
		Items:           items,
		CouponCode:      c.CouponCode,
		CouponDiscount:  c.CouponDiscount,
		Total:           c.TotalPrice(),
		DiscountedTotal: c.DiscountedTotal(),
	}
}

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 3*time.Second)
}

// GET /v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, middleware.Subject(c))))
}

type addItemReq struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	err := h.cart.AddItem(ctx, user, domain.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Image:     req.Image,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

type updateQtyReq struct {
	Quantity int `json:"quantity"`
}

// PATCH /v1/cart/items/:productId
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQtyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	h.cart.UpdateQuantity(ctx, user, c.Param("productId"), req.Quantity)
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

// DELETE /v1/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	h.cart.Remove(ctx, user, c.Param("productId"))
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

// DELETE /v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	h.cart.Clear(ctx, user)
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

type applyCouponReq struct {
	Code string `json:"code" binding:"required"`
}

// POST /v1/cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	res, err := h.cart.ApplyCoupon(ctx, user, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCouponRejected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "coupon_rejected", "message": res.Message})
		case errors.Is(err, usecase.ErrCouponLookup):
			c.JSON(http.StatusBadGateway, gin.H{"error": "coupon_unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

// DELETE /v1/cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	user := middleware.Subject(c)
	h.cart.RemoveCoupon(ctx, user)
	c.JSON(http.StatusOK, toCartResp(h.cart.Get(ctx, user)))
}

// GET /v1/notifications
func (h *CartHandler) Notifications(c *gin.Context) {
	notes := h.hub.Drain(middleware.Subject(c))
	if notes == nil {
		notes = []usecase.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}
