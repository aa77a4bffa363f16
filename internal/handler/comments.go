package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/model"
	"github.com/iliyamo/news-api/internal/repository"
)

// CommentHandler serves /api/comments.
type CommentHandler struct {
	Comments *repository.CommentRepo
	Owners   *repository.OwnerRepo
	now      func() time.Time
}

func NewCommentHandler(comments *repository.CommentRepo, owners *repository.OwnerRepo) *CommentHandler {
	return &CommentHandler{Comments: comments, Owners: owners, now: time.Now}
}

// Recent lists comments created in the last ten minutes.
func (h *CommentHandler) Recent(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := h.Comments.Since(ctx, h.now().Add(-recentWindow))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// Patch votes on the comment and/or replaces its body, with the same rules
// as articles.
func (h *CommentHandler) Patch(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "comment_id")
	if err != nil {
		return err
	}
	var req patchReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if !req.hasVote() && req.Body == nil {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}
	var up bool
	if req.hasVote() {
		if up, err = parseVote(req.IncVotes); err != nil {
			return err
		}
	}
	if req.Body != nil && *req.Body == "" {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	owner, err := h.Owners.FindOwner(ctx, model.KindComment, commentID)
	if err != nil {
		return err
	}
	if req.Body != nil {
		if err := auth.AuthorizeOwnerOrAdmin(id, owner); err != nil {
			return err
		}
	}

	if req.hasVote() {
		if err := h.Comments.Vote(ctx, commentID, id.Username, up); err != nil {
			return err
		}
	}
	if req.Body != nil {
		if err := h.Comments.UpdateBody(ctx, commentID, *req.Body); err != nil {
			return err
		}
	}
	cm, err := h.Comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"comment": cm})
}

func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	commentID, err := pathID(c, "comment_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	owner, err := h.Owners.FindOwner(ctx, model.KindComment, commentID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeOwnerOrAdmin(id, owner); err != nil {
		return err
	}
	if err := h.Comments.Delete(ctx, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
