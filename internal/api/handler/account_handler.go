package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/api/middleware"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// AccountHandler serves sign-up, sign-in, sign-out and the current
// volunteer's own profile.
type AccountHandler struct {
	service ports.AccountService
	cookie  middleware.SessionCookie
}

func NewAccountHandler(service ports.AccountService, cookie middleware.SessionCookie) *AccountHandler {
	return &AccountHandler{service: service, cookie: cookie}
}

type signUpRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

type signInResponse struct {
	Token    string           `json:"token"`
	User     *domain.AuthUser `json:"user"`
	Redirect string           `json:"redirect"`
}

type meResponse struct {
	Volunteer *domain.Volunteer `json:"volunteer"`
	Roles     []string          `json:"roles"`
	IsAdmin   bool              `json:"is_admin"`
}

// SignUp handles POST /sign-up.
//
// @Summary      Register a volunteer account
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account and profile details"
// @Success      201   {object}  domain.Volunteer
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /sign-up [post]
func (h *AccountHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	v, err := h.service.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// SignIn handles POST /sign-in. The session token is returned in the body
// and set as an HTTP-only cookie.
//
// @Summary      Sign in
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Param        next  query     string         false "Page to return to"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /sign-in [post]
func (h *AccountHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.service.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookie.Set(c, token, user.ExpiresAt)
	return c.JSON(http.StatusOK, signInResponse{
		Token:    token,
		User:     user,
		Redirect: safeNext(req.Next),
	})
}

// SignOut handles POST /sign-out.
//
// @Summary      Sign out and revoke the session
// @Tags         account
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /sign-out [post]
func (h *AccountHandler) SignOut(c echo.Context) error {
	token, _ := h.cookie.Token(c.Request())
	if token == "" {
		return domain.ErrUnauthorized
	}
	if err := h.service.SignOut(c.Request().Context(), token); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/me.
//
// @Summary      Current volunteer and roles
// @Tags         account
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	cache, err := requestCache(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	v, err := cache.CurrentVolunteer(ctx)
	if err != nil {
		return err
	}
	roles, err := cache.Roles(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		Volunteer: v,
		Roles:     roles,
		IsAdmin:   cache.IsAdmin(ctx),
	})
}

// IsAdmin handles GET /api/me/is-admin. It never fails: any lookup error
// reads as false.
//
// @Summary      Whether the caller is an administrator
// @Tags         account
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/me/is-admin [get]
func (h *AccountHandler) IsAdmin(c echo.Context) error {
	isAdmin := false
	if cache := middleware.AuthCache(c); cache != nil {
		isAdmin = cache.IsAdmin(c.Request().Context())
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

// safeNext accepts only same-origin absolute paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}
