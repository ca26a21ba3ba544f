package http

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	// frame uploads arrive as JPEG or PNG
	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/http/middleware"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/capture"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/scan"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

type ScanHandler struct {
	mgr   *scan.Manager
	scans usecase.ScanLogRepo
}

func NewScanHandler(mgr *scan.Manager, scans usecase.ScanLogRepo) *ScanHandler {
	return &ScanHandler{mgr: mgr, scans: scans}
}

type openSessionReq struct {
	Backend   string `json:"backend"`   // "primary" (default) or "fallback"
	Reference string `json:"reference"` // optional known-barcode fast path
}

// POST /v1/scan/sessions
func (h *ScanHandler) OpenSession(c *gin.Context) {
	var req openSessionReq
	// an empty body means defaults: primary backend, no reference
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	s := h.mgr.Open(middleware.Subject(c), req.Backend, req.Reference)
	st := s.Status()
	code := http.StatusCreated
	if st.State == scan.StatePermissionDenied || st.State == scan.StateError {
		code = http.StatusConflict
	}
	c.JSON(code, st)
}

type frameReq struct {
	Image string `json:"image" binding:"required"` // base64, optional data-URL prefix
	At    string `json:"at"`                       // optional RFC3339 capture time
}

// POST /v1/scan/sessions/:id/frames
func (h *ScanHandler) PushFrame(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req frameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	raw := req.Image
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_image", "message": "image must be base64"})
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "bad_image", "message": "unsupported image format"})
		return
	}

	at := time.Now()
	if req.At != "" {
		if t, err := time.Parse(time.RFC3339, req.At); err == nil {
			at = t
		}
	}

	if err := h.mgr.PushFrame(s.ID, capture.Frame{Image: img, At: at}); err != nil {
		if errors.Is(err, scan.ErrNotScanning) {
			// late frame for a confirmed or closed session; report the
			// session state instead of failing
			c.JSON(http.StatusOK, s.Status())
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// GET /v1/scan/sessions/:id
func (h *ScanHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

// POST /v1/scan/sessions/:id/switch
func (h *ScanHandler) SwitchBackend(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	next, err := h.mgr.Switch(s.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	logging.From(c).Info("scanner backend switched", "from", s.ID, "to", next.ID, "backend", next.Backend())
	c.JSON(http.StatusOK, next.Status())
}

// DELETE /v1/scan/sessions/:id
func (h *ScanHandler) CloseSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.mgr.Close(s.ID)
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

// GET /v1/admin/scans?limit=100
func (h *ScanHandler) ListScans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	recs, err := h.scans.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logging.From(c).Error("scan history lookup failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": recs})
}

// GET /v1/admin/scans/:id
func (h *ScanHandler) GetScan(c *gin.Context) {
	rec, err := h.scans.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// session resolves :id and enforces that the caller owns it.
func (h *ScanHandler) session(c *gin.Context) (*scan.Session, bool) {
	s, ok := h.mgr.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return nil, false
	}
	if s.UserID != middleware.Subject(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return s, true
}
