package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/forms"
)

// AuthHandler serves the sign-in and sign-up forms and the credential API.
// Credential operations go through the session store of the request.
type AuthHandler struct {
	log zerolog.Logger
}

func NewAuthHandler(log zerolog.Logger) *AuthHandler {
	return &AuthHandler{log: log}
}

type signOutResponse struct {
	Redirect string `json:"redirect"`
}

func (h *AuthHandler) SignInPage(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageSignIn, web.FormView{Page: page(c, "Sign In")})
}

func (h *AuthHandler) SignUpPage(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageSignUp, web.FormView{Page: page(c, "Sign Up")})
}

// SignIn handles the sign-in form post.
func (h *AuthHandler) SignIn(c echo.Context) error {
	out, err := h.submitSignIn(c)
	if err != nil {
		return err
	}
	if out.Failed() {
		return c.Render(http.StatusUnprocessableEntity, web.PageSignIn, formView(c, "Sign In", out))
	}
	return c.Redirect(http.StatusSeeOther, out.Redirect)
}

// SignUp handles the sign-up form post.
func (h *AuthHandler) SignUp(c echo.Context) error {
	out, err := h.submitSignUp(c)
	if err != nil {
		return err
	}
	if out.Failed() {
		return c.Render(http.StatusUnprocessableEntity, web.PageSignUp, formView(c, "Sign Up", out))
	}
	return c.Redirect(http.StatusSeeOther, out.Redirect)
}

// SignOut ends the session and always lands on the sign-in page, whether
// or not the provider acknowledged the sign-out.
func (h *AuthHandler) SignOut(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	store.SignOut(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, forms.SignInPath)
}

// APISignIn signs the browser session in.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Credentials  true  "Credentials"
// @Success      200   {object}  forms.Outcome
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  forms.Outcome
// @Router       /api/auth/sign-in [post]
func (h *AuthHandler) APISignIn(c echo.Context) error {
	out, err := h.submitSignIn(c)
	if err != nil {
		return err
	}
	if out.Failed() {
		return c.JSON(http.StatusUnauthorized, out)
	}
	return c.JSON(http.StatusOK, out)
}

// APISignUp creates an account and signs the browser session in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Credentials  true  "Credentials"
// @Success      200   {object}  forms.Outcome
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  forms.Outcome
// @Failure      422   {object}  forms.Outcome
// @Router       /api/auth/sign-up [post]
func (h *AuthHandler) APISignUp(c echo.Context) error {
	out, err := h.submitSignUp(c)
	if err != nil {
		return err
	}
	switch {
	case out.SignInLink:
		return c.JSON(http.StatusConflict, out)
	case out.Failed():
		return c.JSON(http.StatusUnprocessableEntity, out)
	}
	return c.JSON(http.StatusOK, out)
}

// APISignOut signs the browser session out.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  signOutResponse
// @Router       /api/auth/sign-out [post]
func (h *AuthHandler) APISignOut(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	store.SignOut(c.Request().Context())
	return c.JSON(http.StatusOK, signOutResponse{Redirect: forms.SignInPath})
}

func (h *AuthHandler) submitSignIn(c echo.Context) (forms.Outcome, error) {
	store, err := ctxStore(c)
	if err != nil {
		return forms.Outcome{}, err
	}
	var in domain.Credentials
	if err := c.Bind(&in); err != nil {
		return forms.Outcome{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return forms.NewSignInForm(store, h.log).Submit(c.Request().Context(), in), nil
}

func (h *AuthHandler) submitSignUp(c echo.Context) (forms.Outcome, error) {
	store, err := ctxStore(c)
	if err != nil {
		return forms.Outcome{}, err
	}
	var in domain.Credentials
	if err := c.Bind(&in); err != nil {
		return forms.Outcome{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return forms.NewSignUpForm(store, h.log).Submit(c.Request().Context(), in), nil
}

func formView(c echo.Context, title string, out forms.Outcome) web.FormView {
	return web.FormView{
		Page:       page(c, title),
		Email:      out.Email,
		Error:      out.Error,
		SignInLink: out.SignInLink,
	}
}
