package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/middleware"
	"github.com/iliyamo/news-api/internal/service"
)

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	Accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{Accounts: accounts}
}

type signupReq struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Password  string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup creates an account and responds with it. No token is issued.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.Signup(ctx, service.SignupInput{
		Username:  req.Username,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tok, err := h.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": tok.Token})
}

// Logout cuts off every token the caller holds, including the one presented.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return apperr.Unauthorised()
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Accounts.Logout(ctx, claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Logged out"})
}
