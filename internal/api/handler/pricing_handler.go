package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

type PricingHandler struct {
	service ports.PricingService
}

func NewPricingHandler(service ports.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

type pricingResponse struct {
	Currency string            `json:"currency"`
	Billing  string            `json:"billing"`
	Plans    []ports.PlanQuote `json:"plans"`
}

// Quote returns the plans priced for a currency and billing period.
//
// @Summary      Pricing
// @Tags         pricing
// @Produce      json
// @Param        currency  query     string  false  "USD, GBP or EUR"  default(USD)
// @Param        billing   query     string  false  "monthly or annual"  default(monthly)
// @Success      200       {object}  pricingResponse
// @Failure      400       {object}  errorBody
// @Router       /api/pricing [get]
func (h *PricingHandler) Quote(c echo.Context) error {
	currency, err := domain.ParseCurrency(c.QueryParam("currency"))
	if err != nil {
		return err
	}
	billing := c.QueryParam("billing")
	switch billing {
	case "":
		billing = ports.BillingMonthly
	case ports.BillingMonthly, ports.BillingAnnual:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "billing must be one of: monthly annual")
	}

	return c.JSON(http.StatusOK, pricingResponse{
		Currency: string(currency),
		Billing:  billing,
		Plans:    h.service.Quote(currency, billing == ports.BillingAnnual),
	})
}
