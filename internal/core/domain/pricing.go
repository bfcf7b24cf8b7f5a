package domain

import "strings"

// Currency is a display currency on the pricing section.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyEUR Currency = "EUR"
)

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyGBP, CurrencyEUR}

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyGBP: "£",
	CurrencyEUR: "€",
}

// exchangeRates are relative to USD base prices.
var exchangeRates = map[Currency]float64{
	CurrencyUSD: 1,
	CurrencyGBP: 0.79,
	CurrencyEUR: 0.92,
}

// ParseCurrency accepts a case-insensitive code; empty means USD.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return CurrencyUSD, nil
	}
	c := Currency(s)
	if _, ok := exchangeRates[c]; !ok {
		return "", ErrUnsupportedCurrency
	}
	return c, nil
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string { return currencySymbols[c] }

// Rate returns the USD exchange rate for the currency.
func (c Currency) Rate() float64 { return exchangeRates[c] }

// AnnualMonths is what a year costs, in months, on annual billing.
const AnnualMonths = 8

// Plan is a pricing tier with its USD monthly base price.
type Plan struct {
	Title       string
	BasePrice   float64
	Description string
	Features    []string
	Popular     bool
	// Waitlisted plans are not purchasable yet and send visitors to the
	// waiting list instead of sign-up.
	Waitlisted bool
}

// Plans is the published catalogue.
var Plans = []Plan{
	{
		Title:       "Basic",
		BasePrice:   0,
		Description: "Perfect for getting started",
		Features: []string{
			"Basic task management",
			"Simple focus timer",
			"Limited AI assistance",
			"Community access",
		},
	},
	{
		Title:       "Pro",
		BasePrice:   19,
		Description: "Best for personal use",
		Features: []string{
			"Advanced task management",
			"Custom focus sessions",
			"Full AI assistance",
			"Priority support",
			"Unlimited storage",
		},
		Popular:    true,
		Waitlisted: true,
	},
	{
		Title:       "Team",
		BasePrice:   49,
		Description: "For teams and organizations",
		Features: []string{
			"Everything in Pro",
			"Team collaboration",
			"Admin dashboard",
			"API access",
			"Custom integrations",
		},
		Waitlisted: true,
	},
}
