package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
)

var ErrProductNotFound = errors.New("product not found")

// CartStorage persists the items of one user's cart. Only the item lines are
// stored: coupon state is session-scoped and is re-validated on every apply.
type CartStorage interface {
	Load(ctx context.Context, userID string) ([]domain.CartItem, error)
	Save(ctx context.Context, userID string, items []domain.CartItem) error
	Clear(ctx context.Context, userID string) error
}

// CouponResult is the backend's verdict on a coupon for a given total.
type CouponResult struct {
	Valid          bool
	DiscountAmount decimal.Decimal
	Message        string
}

type CouponValidator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal, userID string) (CouponResult, error)
}

// ProductCatalog resolves a scanned code to a sellable product.
type ProductCatalog interface {
	GetBySKU(ctx context.Context, sku string) (*domain.CartItem, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Unlock releases a lock whose work did not complete, so that a
	// redelivery can retry instead of being swallowed as a duplicate.
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type ScanLogRepo interface {
	Insert(ctx context.Context, rec *domain.ScanRecord) error
	GetByID(ctx context.Context, id string) (*domain.ScanRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ScanRecord, error)
}

// Notification is a user-facing toast. Kind is "success", "info" or "error".
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Notifier interface {
	Push(userID string, n Notification)
}
