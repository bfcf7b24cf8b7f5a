package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

const (
	msgWaitlistJoined  = "Thanks! You're on the list. We'll be in touch soon."
	msgWaitlistAlready = "You're already on the list. We'll be in touch soon."
	msgWaitlistInvalid = "Please enter a valid email address."
)

// WaitlistHandler captures waiting-list sign-ups.
type WaitlistHandler struct {
	service       ports.WaitlistService
	convertKitUID string
}

func NewWaitlistHandler(service ports.WaitlistService, convertKitUID string) *WaitlistHandler {
	return &WaitlistHandler{service: service, convertKitUID: convertKitUID}
}

type joinWaitlistRequest struct {
	Email  string `json:"email" form:"email" validate:"required,email"`
	Source string `json:"source" form:"source"`
}

type joinWaitlistResponse struct {
	Email         string `json:"email"`
	AlreadyJoined bool   `json:"already_joined"`
}

func (h *WaitlistHandler) Page(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageWaitingList, h.view(c))
}

// Join handles the waiting-list form post.
func (h *WaitlistHandler) Join(c echo.Context) error {
	var req joinWaitlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	view := h.view(c)
	view.Email = req.Email

	res, err := h.service.Join(c.Request().Context(), ports.JoinWaitlistInput{Email: req.Email, Source: req.Source})
	if errors.Is(err, domain.ErrInvalidInput) {
		view.Error = msgWaitlistInvalid
		return c.Render(http.StatusUnprocessableEntity, web.PageWaitingList, view)
	}
	if err != nil {
		return err
	}

	view.Message = msgWaitlistJoined
	if res.AlreadyJoined {
		view.Message = msgWaitlistAlready
	}
	return c.Render(http.StatusOK, web.PageWaitingList, view)
}

// APIJoin adds an email to the waiting list.
//
// @Summary      Join the waiting list
// @Tags         waitlist
// @Accept       json
// @Produce      json
// @Param        body  body      joinWaitlistRequest  true  "Email"
// @Success      201   {object}  joinWaitlistResponse
// @Success      200   {object}  joinWaitlistResponse  "already on the list"
// @Failure      400   {object}  errorBody
// @Router       /api/waitlist [post]
func (h *WaitlistHandler) APIJoin(c echo.Context) error {
	var req joinWaitlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Join(c.Request().Context(), ports.JoinWaitlistInput{Email: req.Email, Source: req.Source})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyJoined {
		status = http.StatusOK
	}
	return c.JSON(status, joinWaitlistResponse{Email: res.Email, AlreadyJoined: res.AlreadyJoined})
}

func (h *WaitlistHandler) view(c echo.Context) web.WaitlistView {
	return web.WaitlistView{
		Page:          page(c, "Waiting List"),
		ConvertKitUID: h.convertKitUID,
	}
}
