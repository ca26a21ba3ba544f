package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
)

var (
	ErrCouponRejected = errors.New("coupon rejected")
	ErrCouponLookup   = errors.New("coupon validation unavailable")
)

// CartService holds the live carts, one per user, and funnels every mutation
// through the same path: mutate under lock, persist, then notify exactly
// once. A cart is loaded from storage lazily on first touch; unreadable
// stored state degrades to an empty cart rather than failing the request.
type CartService struct {
	mu     sync.Mutex
	carts  map[string]*domain.Cart
	loaded map[string]bool

	storage  CartStorage
	coupons  CouponValidator
	notifier Notifier
	log      *slog.Logger
}

func NewCartService(storage CartStorage, coupons CouponValidator, notifier Notifier) *CartService {
	return &CartService{
		carts:    make(map[string]*domain.Cart),
		loaded:   make(map[string]bool),
		storage:  storage,
		coupons:  coupons,
		notifier: notifier,
		log:      logging.New("cart"),
	}
}

// cart returns the live cart for userID, loading it on first access.
// Callers must hold s.mu.
func (s *CartService) cart(ctx context.Context, userID string) *domain.Cart {
	if c, ok := s.carts[userID]; ok {
		return c
	}
	c := &domain.Cart{}
	if !s.loaded[userID] {
		items, err := s.storage.Load(ctx, userID)
		if err != nil {
			s.log.Warn("stored cart unreadable, starting empty", "user", userID, "err", err)
		} else {
			c.Items = items
		}
		s.loaded[userID] = true
	}
	s.carts[userID] = c
	return c
}

func (s *CartService) persist(ctx context.Context, userID string, c *domain.Cart) {
	if err := s.storage.Save(ctx, userID, c.Items); err != nil {
		s.log.Error("cart persist failed", "user", userID, "err", err)
	}
}

func (s *CartService) notify(userID string, ns []Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range ns {
		s.notifier.Push(userID, n)
	}
}

// Get returns a snapshot of the user's cart.
func (s *CartService) Get(ctx context.Context, userID string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(ctx, userID)
	snap := domain.Cart{
		Items:          make([]domain.CartItem, len(c.Items)),
		CouponCode:     c.CouponCode,
		CouponDiscount: c.CouponDiscount,
	}
	copy(snap.Items, c.Items)
	return snap
}

// AddItem adds item to the cart. A line for the same product already in the
// cart absorbs the quantity instead of creating a duplicate line.
func (s *CartService) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	c := s.cart(ctx, userID)
	var note Notification
	if i := c.Find(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		note = Notification{Kind: "success", Message: fmt.Sprintf("%s quantity updated in cart", c.Items[i].Name)}
	} else {
		c.Items = append(c.Items, item)
		note = Notification{Kind: "success", Message: fmt.Sprintf("%s added to cart", item.Name)}
	}
	s.persist(ctx, userID, c)
	s.mu.Unlock()

	s.notify(userID, []Notification{note})
	return nil
}

// UpdateQuantity sets the quantity of an existing line. Quantities below one
// are ignored entirely: the line keeps its previous quantity and nothing is
// persisted or announced. Removal is an explicit, separate operation.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) {
	if quantity < 1 {
		return
	}
	s.mu.Lock()
	c := s.cart(ctx, userID)
	i := c.Find(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	c.Items[i].Quantity = quantity
	s.persist(ctx, userID, c)
	s.mu.Unlock()
}

// Remove deletes the line for productID. Removing something that is not in
// the cart is a silent no-op.
func (s *CartService) Remove(ctx context.Context, userID, productID string) {
	s.mu.Lock()
	c := s.cart(ctx, userID)
	i := c.Find(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	name := c.Items[i].Name
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	s.persist(ctx, userID, c)
	s.mu.Unlock()

	s.notify(userID, []Notification{{Kind: "info", Message: fmt.Sprintf("%s removed from cart", name)}})
}

// Clear empties the cart and drops any applied coupon.
func (s *CartService) Clear(ctx context.Context, userID string) {
	s.mu.Lock()
	c := s.cart(ctx, userID)
	c.Items = nil
	c.ClearCoupon()
	if err := s.storage.Clear(ctx, userID); err != nil {
		s.log.Error("cart clear failed", "user", userID, "err", err)
	}
	s.mu.Unlock()

	s.notify(userID, []Notification{{Kind: "info", Message: "Cart cleared"}})
}

// validation round-trips the backend, so the cart may change underneath it;
// the discount is only committed when the total it was validated against
// still holds, with this many re-validation attempts
const couponValidateAttempts = 3

// ApplyCoupon validates code against the current cart total and, on success,
// stores the code and its discount together. On any failure the cart keeps
// whatever coupon state it had before the call.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (CouponResult, error) {
	for attempt := 0; attempt < couponValidateAttempts; attempt++ {
		s.mu.Lock()
		total := s.cart(ctx, userID).TotalPrice()
		s.mu.Unlock()

		res, err := s.coupons.Validate(ctx, code, total, userID)
		if err != nil {
			s.notify(userID, []Notification{{Kind: "error", Message: "Could not validate coupon. Try again."}})
			return CouponResult{}, fmt.Errorf("%w: %s", ErrCouponLookup, err.Error())
		}
		if !res.Valid {
			msg := res.Message
			if msg == "" {
				msg = "Invalid coupon code"
			}
			s.notify(userID, []Notification{{Kind: "error", Message: msg}})
			return res, fmt.Errorf("%w: %s", ErrCouponRejected, msg)
		}

		s.mu.Lock()
		c := s.cart(ctx, userID)
		if !c.TotalPrice().Equal(total) {
			// cart mutated while the validator was in flight; the discount
			// no longer matches the total it was granted for
			s.mu.Unlock()
			continue
		}
		c.SetCoupon(code, res.DiscountAmount)
		s.mu.Unlock()

		s.notify(userID, []Notification{{Kind: "success", Message: fmt.Sprintf("Coupon %s applied", code)}})
		return res, nil
	}

	s.notify(userID, []Notification{{Kind: "error", Message: "Could not validate coupon. Try again."}})
	return CouponResult{}, fmt.Errorf("%w: cart changed during validation", ErrCouponLookup)
}

// RemoveCoupon clears the applied coupon; the total reverts to the plain sum
// of the lines.
func (s *CartService) RemoveCoupon(ctx context.Context, userID string) {
	s.mu.Lock()
	c := s.cart(ctx, userID)
	had := c.CouponCode != ""
	c.ClearCoupon()
	s.mu.Unlock()

	if had {
		s.notify(userID, []Notification{{Kind: "info", Message: "Coupon removed"}})
	}
}

// Reprice propagates a product price change into every loaded cart that
// carries the product. Fired by the product events consumer.
func (s *CartService) Reprice(ctx context.Context, productID, name string, price decimal.Decimal) {
	s.mu.Lock()
	type touched struct {
		userID string
		cart   *domain.Cart
	}
	var dirty []touched
	for userID, c := range s.carts {
		if i := c.Find(productID); i >= 0 {
			c.Items[i].Price = price
			if name != "" {
				c.Items[i].Name = name
			}
			dirty = append(dirty, touched{userID, c})
		}
	}
	for _, d := range dirty {
		s.persist(ctx, d.userID, d.cart)
	}
	s.mu.Unlock()

	if len(dirty) > 0 {
		s.log.Info("repriced cart lines", "product", productID, "carts", len(dirty))
	}
}
