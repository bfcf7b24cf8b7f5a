package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/api/middleware"
	"github.com/haphazard/site/internal/core/guard"
)

const defaultKeepAlive = 15 * time.Second

// SessionHandler exposes the session snapshot of the browser session.
type SessionHandler struct {
	signInPath string
	keepAlive  time.Duration
	log        zerolog.Logger
}

func NewSessionHandler(signInPath string, keepAlive time.Duration, log zerolog.Logger) *SessionHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &SessionHandler{signInPath: signInPath, keepAlive: keepAlive, log: log}
}

// Snapshot returns the current session snapshot without waiting for it to
// resolve.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Snapshot
// @Router       /api/session [get]
func (h *SessionHandler) Snapshot(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, store.Snapshot())
}

// Me returns the signed-in identity. Guarded.
//
// @Summary      Signed-in identity
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  errorBody
// @Failure      503  {object}  errorBody
// @Router       /api/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, identity)
}

// Events streams guard decisions for the session as server-sent events
// until the client goes away or the session is redirected to sign-in.
func (h *SessionHandler) Events(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	// latest holds at most the newest undelivered decision.
	latest := make(chan guard.Decision, 1)
	sub := guard.Watch(store, h.signInPath, func(d guard.Decision) {
		for {
			select {
			case latest <- d:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case d := <-latest:
			data, err := json.Marshal(d)
			if err != nil {
				h.log.Error().Err(err).Msg("failed to marshal guard decision")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
			if d.Action == guard.ActionRedirect {
				return nil
			}
		}
	}
}
