package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileCartStore(t.TempDir())
	require.NoError(t, err)

	items := []domain.CartItem{
		{ProductID: "p1", Name: "RAM 16GB", Price: decimal.NewFromInt(49), Quantity: 2},
		{ProductID: "p2", Name: "SSD 1TB", Price: decimal.RequireFromString("119.99"), Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "u1", items))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("119.99")))
}

func TestFileStoreMissingFileIsEmptyCart(t *testing.T) {
	store, err := NewFileCartStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileCartStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart_u1.json"), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "u1")
	assert.Error(t, err)
}

func TestFileStoreClearAndEmptySave(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileCartStore(t.TempDir())
	require.NoError(t, err)

	items := []domain.CartItem{{ProductID: "p1", Name: "PSU", Price: decimal.NewFromInt(80), Quantity: 1}}
	require.NoError(t, store.Save(ctx, "u1", items))

	// saving an empty cart removes the file, same as Clear
	require.NoError(t, store.Save(ctx, "u1", nil))
	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Clear(ctx, "u1")) // clearing twice is fine
}

func TestFileStoreSanitizesUserID(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileCartStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "../evil/../u1", []domain.CartItem{
		{ProductID: "p1", Name: "Fan", Price: decimal.NewFromInt(20), Quantity: 1},
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "..")
}
