package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/repository"
	"github.com/iliyamo/news-api/internal/service"
	"github.com/iliyamo/news-api/internal/storage"
)

// maxAvatarBytes caps an avatar upload.
const maxAvatarBytes = 2 << 20

// UserHandler serves the /api/users resources.
type UserHandler struct {
	Users    *repository.UserRepo
	Accounts *service.AccountService
	Avatars  storage.AvatarStore // nil when no bucket is configured
}

func NewUserHandler(users *repository.UserRepo, accounts *service.AccountService, avatars storage.AvatarStore) *UserHandler {
	return &UserHandler{Users: users, Accounts: accounts, Avatars: avatars}
}

type patchUserReq struct {
	Username  *string `json:"username"`
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Password  *string `json:"password"`
	Admin     *bool   `json:"admin"`
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.FindByUsername(ctx, c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Patch applies a partial profile or credential update.
func (h *UserHandler) Patch(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req patchUserReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.UpdateUser(ctx, id, c.Param("username"), service.UserPatch{
		Username:  req.Username,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Password:  req.Password,
		Admin:     req.Admin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Likes lists the articles the user has up-voted.
func (h *UserHandler) Likes(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	username := c.Param("username")
	if _, err := h.Users.FindByUsername(ctx, username); err != nil {
		return err
	}
	likes, err := h.Users.Likes(ctx, username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"likes": likes})
}

// Revoke signs the user out everywhere. Admin only.
func (h *UserHandler) Revoke(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Accounts.RevokeSessions(ctx, id, c.Param("username")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Sessions revoked"})
}

// Avatar stores the multipart "avatar" file and points avatar_url at it.
func (h *UserHandler) Avatar(c echo.Context) error {
	if h.Avatars == nil {
		return apperr.Unavailable()
	}
	id, err := caller(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}
	if fh.Size > maxAvatarBytes {
		return apperr.New(http.StatusRequestEntityTooLarge, apperr.MsgTooLarge)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.SetAvatar(ctx, id, c.Param("username"), func(ctx context.Context) (string, error) {
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		return h.Avatars.PutAvatar(ctx, c.Param("username"), fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
