package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/haphazard/site/internal/api/middleware"
	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/session"
)

// ctxStore returns the session store bound by the Session middleware and
// fails fast when the route was registered without it.
func ctxStore(c echo.Context) (*session.Store, error) {
	store := middleware.StoreFrom(c)
	if store == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not bound")
	}
	return store, nil
}

// page builds the layout part of a view for the current request.
func page(c echo.Context, title string) web.Page {
	token, _ := c.Get(echomiddleware.DefaultCSRFConfig.ContextKey).(string)
	return web.Page{
		Title:     title,
		CSRFToken: token,
		Identity:  middleware.IdentityFrom(c),
	}
}

// errorBody documents the error envelope written by the API error handler.
type errorBody struct {
	Error string `json:"error"`
}
