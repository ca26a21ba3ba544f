package kafka

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

// PriceChangedHandler applies a catalog price change to every loaded cart.
type PriceChangedHandler struct {
	Cart *usecase.CartService
}

func NewPriceChangedHandler(cart *usecase.CartService) *PriceChangedHandler {
	return &PriceChangedHandler{Cart: cart}
}

func (h *PriceChangedHandler) Handle(ctx context.Context, ev usecase.ProductPriceChangedMsg) error {
	if ev.ProductID == "" {
		return nil
	}
	price, err := decimal.NewFromString(ev.Price)
	if err != nil {
		return fmt.Errorf("bad price %q for product %s: %w", ev.Price, ev.ProductID, err)
	}
	h.Cart.Reprice(ctx, ev.ProductID, ev.Name, price)
	return nil
}
