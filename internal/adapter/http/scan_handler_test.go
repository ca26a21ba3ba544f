package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/repo"
	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
)

type memScanRepo struct {
	recs map[string]domain.ScanRecord
}

func (m *memScanRepo) Insert(_ context.Context, rec *domain.ScanRecord) error {
	m.recs[rec.ID] = *rec
	return nil
}

func (m *memScanRepo) GetByID(_ context.Context, id string) (*domain.ScanRecord, error) {
	r, ok := m.recs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &r, nil
}

func (m *memScanRepo) ListRecent(_ context.Context, _ int) ([]domain.ScanRecord, error) {
	out := make([]domain.ScanRecord, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r)
	}
	return out, nil
}

func newScanAuditRouter(repo *memScanRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewScanHandler(nil, repo)
	r := gin.New()
	r.GET("/v1/admin/scans", h.ListScans)
	r.GET("/v1/admin/scans/:id", h.GetScan)
	return r
}

func TestGetScanByID(t *testing.T) {
	repo := &memScanRepo{recs: map[string]domain.ScanRecord{
		"scan-1": {
			ID:         "scan-1",
			SessionID:  "sess-1",
			UserID:     "admin-pos",
			Raw:        "4006381333931",
			Normalized: "4006381333931",
			Format:     "EAN-13",
			Backend:    "primary",
			CreatedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
	}}
	r := newScanAuditRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/scans/scan-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rec domain.ScanRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "4006381333931", rec.Normalized)
	assert.Equal(t, "primary", rec.Backend)
}

func TestGetScanByIDUnknownIs404(t *testing.T) {
	r := newScanAuditRouter(&memScanRepo{recs: map[string]domain.ScanRecord{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/admin/scans/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
