package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/guard"
	"github.com/haphazard/site/internal/pkg/metrics"
)

// loadingRetry is how soon a visitor held on the loading page retries.
const loadingRetry = time.Second

// GateOptions configures RequireSession.
type GateOptions struct {
	SignInPath string
	// API answers with status codes and JSON instead of pages and redirects.
	API bool
	// InitialWait bounds how long a request waits for a session that is
	// still resolving before the loading answer is sent.
	InitialWait time.Duration
}

// RequireSession admits only requests whose session resolved to a signed-in
// identity. A still-resolving session gets the loading page (503 in API
// mode), an anonymous one is sent to the sign-in page (401 in API mode).
// Must run after Session.
func RequireSession(opts GateOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := StoreFrom(c)
			if store == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session not bound")
			}

			awaitReady(c.Request().Context(), store.Ready(), opts.InitialWait)

			d := guard.Decide(store.Snapshot(), opts.SignInPath)
			metrics.GuardDecisionsTotal.WithLabelValues(string(d.Action)).Inc()

			switch d.Action {
			case guard.ActionWait:
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(loadingRetry.Seconds())))
				if opts.API {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session is still loading"})
				}
				return c.Render(http.StatusOK, web.PageLoading, web.Page{
					Title:   "Loading",
					Refresh: int(loadingRetry.Seconds()),
				})
			case guard.ActionRedirect:
				if opts.API {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not signed in"})
				}
				return c.Redirect(http.StatusSeeOther, d.Target)
			}

			c.Set(ctxKeyIdentity, d.Identity)
			return next(c)
		}
	}
}

// awaitReady blocks until ready closes, wait elapses or ctx ends.
func awaitReady(ctx context.Context, ready <-chan struct{}, wait time.Duration) {
	select {
	case <-ready:
		return
	default:
	}
	if wait <= 0 {
		return
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ready:
	case <-t.C:
	case <-ctx.Done():
	}
}
