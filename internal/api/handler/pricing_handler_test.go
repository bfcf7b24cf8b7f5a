package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/service"
)

func TestPricingHandler_Quote(t *testing.T) {
	e := newTestEcho()
	c, rec := newContext(e, http.MethodGet, "/api/pricing?currency=EUR&billing=annual", nil, "", nil)

	if err := NewPricingHandler(service.NewPricingService()).Quote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp pricingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Currency != "EUR" || resp.Billing != "annual" || len(resp.Plans) != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// Pro: 19 * 0.92 * 8 = 139.84
	if resp.Plans[1].Price != 140 || resp.Plans[1].Symbol != "€" {
		t.Fatalf("unexpected Pro quote: %+v", resp.Plans[1])
	}
}

func TestPricingHandler_Defaults(t *testing.T) {
	e := newTestEcho()
	c, rec := newContext(e, http.MethodGet, "/api/pricing", nil, "", nil)

	if err := NewPricingHandler(service.NewPricingService()).Quote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp pricingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Currency != "USD" || resp.Billing != "monthly" {
		t.Fatalf("unexpected defaults: %+v", resp)
	}
}

func TestPricingHandler_UnsupportedCurrency(t *testing.T) {
	e := newTestEcho()
	c, _ := newContext(e, http.MethodGet, "/api/pricing?currency=JPY", nil, "", nil)

	err := NewPricingHandler(service.NewPricingService()).Quote(c)
	if !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestPricingHandler_InvalidBilling(t *testing.T) {
	e := newTestEcho()
	c, _ := newContext(e, http.MethodGet, "/api/pricing?billing=weekly", nil, "", nil)

	err := NewPricingHandler(service.NewPricingService()).Quote(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
