// Package backend is the JSON client for the shop API: coupon validation
// and product lookup by SKU. It speaks the same endpoints the storefront
// called directly.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: timeout},
	}
}

type validateCouponReq struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	UserID      string          `json:"userId"`
}

type validateCouponResp struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message"`
}

func (c *Client) Validate(ctx context.Context, code string, orderAmount decimal.Decimal, userID string) (usecase.CouponResult, error) {
	body, err := json.Marshal(validateCouponReq{Code: code, OrderAmount: orderAmount, UserID: userID})
	if err != nil {
		return usecase.CouponResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/coupons/validate", bytes.NewReader(body))
	if err != nil {
		return usecase.CouponResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return usecase.CouponResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return usecase.CouponResult{}, fmt.Errorf("coupon validate: unexpected status %d", resp.StatusCode)
	}

	var out validateCouponResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return usecase.CouponResult{}, fmt.Errorf("coupon validate: decode: %w", err)
	}
	return usecase.CouponResult{
		Valid:          out.Valid,
		DiscountAmount: out.DiscountAmount,
		Message:        out.Message,
	}, nil
}

type productResp struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

func (c *Client) GetBySKU(ctx context.Context, sku string) (*domain.CartItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/products/sku/"+url.PathEscape(sku), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, usecase.ErrProductNotFound
	default:
		return nil, fmt.Errorf("product lookup: unexpected status %d", resp.StatusCode)
	}

	var out productResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("product lookup: decode: %w", err)
	}
	return &domain.CartItem{
		ProductID: out.ProductID,
		Name:      out.Name,
		Price:     out.Price,
		Quantity:  1,
		Image:     out.Image,
	}, nil
}

var (
	_ usecase.CouponValidator = (*Client)(nil)
	_ usecase.ProductCatalog  = (*Client)(nil)
)
