package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyProductID  = errors.New("empty product id")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// CartItem is one line of a cart, keyed by ProductID.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

func (i CartItem) Validate() error {
	if i.ProductID == "" {
		return ErrEmptyProductID
	}
	if i.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds the lines in insertion order plus an optional coupon.
// CouponCode and CouponDiscount are set and cleared strictly as a pair.
type Cart struct {
	Items          []CartItem      `json:"items"`
	CouponCode     string          `json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
}

// Find returns the index of the line for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// DiscountedTotal is TotalPrice minus the coupon discount, never below zero.
func (c *Cart) DiscountedTotal() decimal.Decimal {
	t := c.TotalPrice().Sub(c.CouponDiscount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

func (c *Cart) SetCoupon(code string, discount decimal.Decimal) {
	c.CouponCode = code
	c.CouponDiscount = discount
}

func (c *Cart) ClearCoupon() {
	c.CouponCode = ""
	c.CouponDiscount = decimal.Zero
}
