package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/api/middleware"
	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

const activityRows = 5

// SessionCounter reports how many browser sessions are live.
type SessionCounter interface {
	Len() int
}

// PagesHandler serves the landing page and the dashboard shell.
type PagesHandler struct {
	pricing    ports.PricingService
	sessions   SessionCounter
	eventsPath string
	now        func() time.Time
}

func NewPagesHandler(pricing ports.PricingService, sessions SessionCounter, eventsPath string) *PagesHandler {
	return &PagesHandler{
		pricing:    pricing,
		sessions:   sessions,
		eventsPath: eventsPath,
		now:        time.Now,
	}
}

// Home renders the landing page. An unknown currency falls back to USD.
func (h *PagesHandler) Home(c echo.Context) error {
	currency, err := domain.ParseCurrency(c.QueryParam("currency"))
	if err != nil {
		currency = domain.CurrencyUSD
	}
	annual := c.QueryParam("billing") == ports.BillingAnnual

	view := web.NewHomeView(page(c, ""), h.pricing.Quote(currency, annual), currency, annual)
	return c.Render(http.StatusOK, web.PageHome, view)
}

// Dashboard renders the placeholder admin dashboard. Guarded.
func (h *PagesHandler) Dashboard(c echo.Context) error {
	p := page(c, "Dashboard")
	p.Identity = middleware.IdentityFrom(c)

	date := h.now().Format("1/2/2006")
	activity := make([]web.Activity, 0, activityRows)
	for i := 1; i <= activityRows; i++ {
		activity = append(activity, web.Activity{
			User:   fmt.Sprintf("User %d", i),
			Email:  fmt.Sprintf("user%d@example.com", i),
			Action: "Logged in",
			Date:   date,
		})
	}

	return c.Render(http.StatusOK, web.PageDashboard, web.DashboardView{
		Page: p,
		Nav:  web.DashboardNav,
		Stats: []web.Stat{
			{Label: "Total Users", Value: "1,234"},
			{Label: "Active Sessions", Value: strconv.Itoa(h.sessions.Len())},
			{Label: "Premium Users", Value: "432"},
		},
		Activity:   activity,
		EventsPath: h.eventsPath,
	})
}
