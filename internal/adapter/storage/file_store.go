// Package storage is the default cart persistence: one JSON file of item
// lines per user, the server-side analogue of the storefront's local
// storage. Unreadable or malformed files are treated as an empty cart by
// the caller, never as a fatal error.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

type FileCartStore struct {
	dir string
}

func NewFileCartStore(dir string) (*FileCartStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cart dir: %w", err)
	}
	return &FileCartStore{dir: dir}, nil
}

// path sanitizes userID into a flat file name under dir.
func (s *FileCartStore) path(userID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, userID)
	return filepath.Join(s.dir, "cart_"+safe+".json")
}

func (s *FileCartStore) Load(_ context.Context, userID string) ([]domain.CartItem, error) {
	raw, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("stored cart for %s: %w", userID, err)
	}
	return items, nil
}

func (s *FileCartStore) Save(_ context.Context, userID string, items []domain.CartItem) error {
	if len(items) == 0 {
		return s.Clear(context.Background(), userID)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tmp := s.path(userID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(userID))
}

func (s *FileCartStore) Clear(_ context.Context, userID string) error {
	err := os.Remove(s.path(userID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ usecase.CartStorage = (*FileCartStore)(nil)
