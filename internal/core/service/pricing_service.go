package service

import (
	"math"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

const (
	waitlistPath = "/waiting-list"
	signUpPath   = "/sign-up"
)

type pricingService struct {
	plans []domain.Plan
}

// NewPricingService returns a PricingService over the published plans.
func NewPricingService() ports.PricingService {
	return &pricingService{plans: domain.Plans}
}

// Quote prices every plan in currency. Annual billing charges eight months
// for twelve.
func (s *pricingService) Quote(currency domain.Currency, annual bool) []ports.PlanQuote {
	rate := currency.Rate()
	period := "/month"
	months := 1.0
	if annual {
		period = "/year"
		months = domain.AnnualMonths
	}

	quotes := make([]ports.PlanQuote, 0, len(s.plans))
	for _, p := range s.plans {
		q := ports.PlanQuote{
			Title:        p.Title,
			Description:  p.Description,
			Features:     append([]string(nil), p.Features...),
			Popular:      p.Popular,
			Currency:     string(currency),
			Symbol:       currency.Symbol(),
			Price:        int(math.Round(p.BasePrice * rate * months)),
			Period:       period,
			CallToAction: "Get Started",
			Href:         signUpPath,
		}
		if annual {
			q.YearlySavings = int(math.Round((p.BasePrice*12 - p.BasePrice*domain.AnnualMonths) * rate))
		}
		if p.Waitlisted {
			q.CallToAction = "Join Waiting List"
			q.Href = waitlistPath
		}
		quotes = append(quotes, q)
	}
	return quotes
}
