package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
)

// ConfirmScanInput is one accepted scan arriving from the queue.
type ConfirmScanInput struct {
	SessionID string
	UserID    string
	Code      string
}

// ConfirmScan turns an accepted scan into a cart line: resolve the code in
// the catalog and add the product. The session id doubles as the idempotency
// key, so a redelivered confirmation never adds the product twice.
type ConfirmScan struct {
	idem    IdempotencyStore
	catalog ProductCatalog
	cart    *CartService
	log     *slog.Logger
}

func NewConfirmScan(idem IdempotencyStore, catalog ProductCatalog, cart *CartService) *ConfirmScan {
	return &ConfirmScan{idem: idem, catalog: catalog, cart: cart, log: logging.New("confirm-scan")}
}

func (uc *ConfirmScan) Execute(ctx context.Context, in ConfirmScanInput) error {
	if _, done, _ := uc.idem.Recall(ctx, in.UserID, in.SessionID); done {
		return nil
	}
	ok, err := uc.idem.TryLock(ctx, in.UserID, in.SessionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil // another delivery got there first
	}

	item, err := uc.catalog.GetBySKU(ctx, in.Code)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			uc.log.Warn("scanned code matches no product", "code", in.Code, "session", in.SessionID)
			if uc.cart.notifier != nil {
				uc.cart.notifier.Push(in.UserID, Notification{Kind: "error", Message: "Scanned product not found"})
			}
			_ = uc.idem.Remember(ctx, in.UserID, in.SessionID, "not_found")
			return nil
		}
		// transient failure: release the lock so the redelivery retries
		// instead of being dropped as a duplicate
		_ = uc.idem.Unlock(ctx, in.UserID, in.SessionID)
		return err
	}

	if err := uc.cart.AddItem(ctx, in.UserID, *item); err != nil {
		_ = uc.idem.Unlock(ctx, in.UserID, in.SessionID)
		return err
	}
	_ = uc.idem.Remember(ctx, in.UserID, in.SessionID, item.ProductID)
	return nil
}
