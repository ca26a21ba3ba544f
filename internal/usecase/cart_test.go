package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
)

type memStorage struct {
	mu      sync.Mutex
	items   map[string][]domain.CartItem
	corrupt bool
	saves   int
}

func newMemStorage() *memStorage {
	return &memStorage{items: map[string][]domain.CartItem{}}
}

func (m *memStorage) Load(_ context.Context, userID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.corrupt {
		return nil, errors.New("unexpected end of JSON input")
	}
	return m.items[userID], nil
}

func (m *memStorage) Save(_ context.Context, userID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	cp := make([]domain.CartItem, len(items))
	copy(cp, items)
	m.items[userID] = cp
	return nil
}

func (m *memStorage) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	delete(m.items, userID)
	return nil
}

type fakeValidator struct {
	res CouponResult
	err error
}

func (f *fakeValidator) Validate(context.Context, string, decimal.Decimal, string) (CouponResult, error) {
	return f.res, f.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Push(_ string, n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func item(id, name string, price int64, qty int) domain.CartItem {
	return domain.CartItem{ProductID: id, Name: name, Price: decimal.NewFromInt(price), Quantity: qty}
}

func TestAddItemMergesSameProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "RAM 16GB", 49, 2)))
	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "RAM 16GB", 49, 3)))

	c := svc.Get(ctx, "u1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.TotalPrice().Equal(decimal.NewFromInt(245)))
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "SSD", 99, 0)))
	c := svc.Get(ctx, "u1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestUpdateQuantityBelowOneIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	svc := NewCartService(store, &fakeValidator{}, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "GPU", 500, 2)))
	savesBefore := store.saves

	svc.UpdateQuantity(ctx, "u1", "p1", 0)
	svc.UpdateQuantity(ctx, "u1", "p1", -3)

	c := svc.Get(ctx, "u1")
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, savesBefore, store.saves, "a rejected quantity must not be persisted")

	svc.UpdateQuantity(ctx, "u1", "p1", 7)
	assert.Equal(t, 7, svc.Get(ctx, "u1").Items[0].Quantity)
}

func TestRemoveThenReAddLeavesSingleFreshLine(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "PSU", 80, 4)))
	svc.Remove(ctx, "u1", "p1")
	require.Empty(t, svc.Get(ctx, "u1").Items)

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "PSU", 80, 1)))
	c := svc.Get(ctx, "u1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity, "re-added line must not inherit the removed quantity")
}

func TestRemoveUnknownProductNotifiesNothing(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	svc := NewCartService(newMemStorage(), &fakeValidator{}, n)

	svc.Remove(ctx, "u1", "ghost")
	assert.Zero(t, n.count())
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	ctx := context.Background()
	v := &fakeValidator{res: CouponResult{Valid: true, DiscountAmount: decimal.NewFromInt(10)}}
	svc := NewCartService(newMemStorage(), v, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Case", 100, 1)))

	res, err := svc.ApplyCoupon(ctx, "u1", "SAVE10")
	require.NoError(t, err)
	assert.True(t, res.DiscountAmount.Equal(decimal.NewFromInt(10)))

	c := svc.Get(ctx, "u1")
	assert.Equal(t, "SAVE10", c.CouponCode)
	assert.True(t, c.DiscountedTotal().Equal(decimal.NewFromInt(90)))

	svc.RemoveCoupon(ctx, "u1")
	c = svc.Get(ctx, "u1")
	assert.Empty(t, c.CouponCode)
	assert.True(t, c.CouponDiscount.IsZero())
	assert.True(t, c.DiscountedTotal().Equal(decimal.NewFromInt(100)))
}

func TestRejectedCouponLeavesCartUntouched(t *testing.T) {
	ctx := context.Background()
	v := &fakeValidator{res: CouponResult{Valid: true, DiscountAmount: decimal.NewFromInt(5)}}
	svc := NewCartService(newMemStorage(), v, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Fan", 20, 1)))
	_, err := svc.ApplyCoupon(ctx, "u1", "OK5")
	require.NoError(t, err)

	v.res = CouponResult{Valid: false, Message: "Coupon expired"}
	_, err = svc.ApplyCoupon(ctx, "u1", "DEAD")
	require.ErrorIs(t, err, ErrCouponRejected)
	assert.Contains(t, err.Error(), "Coupon expired")

	c := svc.Get(ctx, "u1")
	assert.Equal(t, "OK5", c.CouponCode, "the previously applied coupon must survive a rejected one")
	assert.True(t, c.CouponDiscount.Equal(decimal.NewFromInt(5)))
}

// racingValidator mutates the cart during its first validation call, the
// way a concurrent add lands while the coupon backend round-trip is in
// flight. The discount it grants is a function of the total it saw.
type racingValidator struct {
	svc    *CartService
	calls  int
	totals []decimal.Decimal
}

func (v *racingValidator) Validate(ctx context.Context, _ string, orderAmount decimal.Decimal, userID string) (CouponResult, error) {
	v.calls++
	v.totals = append(v.totals, orderAmount)
	if v.calls == 1 {
		_ = v.svc.AddItem(ctx, userID, item("p2", "GPU", 500, 1))
	}
	return CouponResult{Valid: true, DiscountAmount: orderAmount.Div(decimal.NewFromInt(10))}, nil
}

func TestApplyCouponRevalidatesWhenCartChangesMidFlight(t *testing.T) {
	ctx := context.Background()
	v := &racingValidator{}
	svc := NewCartService(newMemStorage(), v, &recordingNotifier{})
	v.svc = svc

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Case", 100, 1)))

	_, err := svc.ApplyCoupon(ctx, "u1", "TEN")
	require.NoError(t, err)

	require.Equal(t, 2, v.calls, "a mutated total must trigger a second validation")
	assert.True(t, v.totals[0].Equal(decimal.NewFromInt(100)))
	assert.True(t, v.totals[1].Equal(decimal.NewFromInt(600)))

	// the committed discount matches the total it was validated against
	c := svc.Get(ctx, "u1")
	assert.True(t, c.CouponDiscount.Equal(decimal.NewFromInt(60)))
	assert.True(t, c.DiscountedTotal().Equal(decimal.NewFromInt(540)))
}

func TestValidatorOutageLeavesCartUntouched(t *testing.T) {
	ctx := context.Background()
	v := &fakeValidator{err: errors.New("connection refused")}
	svc := NewCartService(newMemStorage(), v, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Cooler", 35, 1)))
	_, err := svc.ApplyCoupon(ctx, "u1", "ANY")
	require.ErrorIs(t, err, ErrCouponLookup)

	c := svc.Get(ctx, "u1")
	assert.Empty(t, c.CouponCode)
	assert.True(t, c.CouponDiscount.IsZero())
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	store.corrupt = true
	svc := NewCartService(store, &fakeValidator{}, &recordingNotifier{})

	c := svc.Get(ctx, "u1")
	assert.Empty(t, c.Items)

	// the cart remains fully usable after the failed load
	store.corrupt = false
	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Mobo", 150, 1)))
	assert.Len(t, svc.Get(ctx, "u1").Items, 1)
}

func TestEveryMutationNotifiesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	svc := NewCartService(newMemStorage(), &fakeValidator{res: CouponResult{Valid: true, DiscountAmount: decimal.NewFromInt(1)}}, n)

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "CPU", 300, 1))) // 1
	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "CPU", 300, 1))) // 2 (merge)
	svc.Remove(ctx, "u1", "p1")                                          // 3
	_, _ = svc.ApplyCoupon(ctx, "u1", "ONE")                             // 4
	svc.RemoveCoupon(ctx, "u1")                                          // 5
	svc.Clear(ctx, "u1")                                                 // 6

	assert.Equal(t, 6, n.count())
}

func TestClearDropsItemsAndCoupon(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	v := &fakeValidator{res: CouponResult{Valid: true, DiscountAmount: decimal.NewFromInt(10)}}
	svc := NewCartService(store, v, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "Case", 100, 1)))
	_, err := svc.ApplyCoupon(ctx, "u1", "SAVE10")
	require.NoError(t, err)

	svc.Clear(ctx, "u1")
	c := svc.Get(ctx, "u1")
	assert.Empty(t, c.Items)
	assert.Empty(t, c.CouponCode)
	assert.True(t, c.CouponDiscount.IsZero())
	assert.Empty(t, store.items["u1"])
}

func TestRepriceUpdatesLoadedCarts(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})

	require.NoError(t, svc.AddItem(ctx, "u1", item("p1", "SSD 1TB", 120, 2)))
	require.NoError(t, svc.AddItem(ctx, "u2", item("p2", "HDD 4TB", 90, 1)))

	svc.Reprice(ctx, "p1", "SSD 1TB v2", decimal.NewFromInt(110))

	c1 := svc.Get(ctx, "u1")
	assert.True(t, c1.Items[0].Price.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, "SSD 1TB v2", c1.Items[0].Name)

	c2 := svc.Get(ctx, "u2")
	assert.True(t, c2.Items[0].Price.Equal(decimal.NewFromInt(90)))
}

type memIdem struct {
	mu     sync.Mutex
	locked map[string]bool
	vals   map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locked: map[string]bool{}, vals: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locked[k] {
		return false, nil
	}
	m.locked[k] = true
	return true, nil
}

func (m *memIdem) Unlock(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

type memCatalog struct {
	products map[string]domain.CartItem
}

func (m *memCatalog) GetBySKU(_ context.Context, sku string) (*domain.CartItem, error) {
	p, ok := m.products[sku]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func TestConfirmScanIsIdempotentPerSession(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})
	catalog := &memCatalog{products: map[string]domain.CartItem{
		"4006381333931": item("p1", "Keyboard", 45, 1),
	}}
	uc := NewConfirmScan(newMemIdem(), catalog, svc)

	in := ConfirmScanInput{SessionID: "sess-1", UserID: "u1", Code: "4006381333931"}
	require.NoError(t, uc.Execute(ctx, in))
	require.NoError(t, uc.Execute(ctx, in)) // redelivery

	c := svc.Get(ctx, "u1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

// flakyCatalog fails its first lookups, then behaves like memCatalog.
type flakyCatalog struct {
	fails    int
	products map[string]domain.CartItem
}

func (f *flakyCatalog) GetBySKU(ctx context.Context, sku string) (*domain.CartItem, error) {
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("connection reset by peer")
	}
	return (&memCatalog{products: f.products}).GetBySKU(ctx, sku)
}

func TestConfirmScanRecoversAfterTransientCatalogFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(newMemStorage(), &fakeValidator{}, &recordingNotifier{})
	catalog := &flakyCatalog{fails: 1, products: map[string]domain.CartItem{
		"4006381333931": item("p1", "Keyboard", 45, 1),
	}}
	uc := NewConfirmScan(newMemIdem(), catalog, svc)

	in := ConfirmScanInput{SessionID: "sess-1", UserID: "u1", Code: "4006381333931"}
	require.Error(t, uc.Execute(ctx, in), "a transient catalog failure must surface so the delivery is requeued")

	// broker redelivery after the NACK must not be treated as a duplicate
	require.NoError(t, uc.Execute(ctx, in))
	c := svc.Get(ctx, "u1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1", c.Items[0].ProductID)
}

func TestConfirmScanUnknownProductLeavesCartEmpty(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	svc := NewCartService(newMemStorage(), &fakeValidator{}, n)
	uc := NewConfirmScan(newMemIdem(), &memCatalog{products: map[string]domain.CartItem{}}, svc)

	require.NoError(t, uc.Execute(ctx, ConfirmScanInput{SessionID: "sess-1", UserID: "u1", Code: "999"}))
	assert.Empty(t, svc.Get(ctx, "u1").Items)
	assert.Equal(t, 1, n.count())
}
