package queue

import (
	"context"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

// ScanConfirmedHandler drives the scan-to-cart flow for each confirmed scan
// delivery. Meant to be wrapped in JSONHandler[usecase.ScanConfirmedMsg].
type ScanConfirmedHandler struct {
	uc *usecase.ConfirmScan
}

func NewScanConfirmedHandler(uc *usecase.ConfirmScan) *ScanConfirmedHandler {
	return &ScanConfirmedHandler{uc: uc}
}

func (h *ScanConfirmedHandler) HandleConfirmed(ctx context.Context, msg usecase.ScanConfirmedMsg) error {
	return h.uc.Execute(ctx, usecase.ConfirmScanInput{
		SessionID: msg.SessionID,
		UserID:    msg.UserID,
		Code:      msg.Code,
	})
}
