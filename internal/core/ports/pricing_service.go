package ports

import "github.com/haphazard/site/internal/core/domain"

// Billing periods accepted by the pricing section.
const (
	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

// PlanQuote is a plan priced for one currency and billing period.
type PlanQuote struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Features      []string `json:"features"`
	Popular       bool     `json:"popular"`
	Currency      string   `json:"currency"`
	Symbol        string   `json:"symbol"`
	Price         int      `json:"price"`
	Period        string   `json:"period"`
	YearlySavings int      `json:"yearly_savings,omitempty"`
	CallToAction  string   `json:"call_to_action"`
	Href          string   `json:"href"`
}

// PricingService computes the pricing section.
type PricingService interface {
	Quote(currency domain.Currency, annual bool) []PlanQuote
}
