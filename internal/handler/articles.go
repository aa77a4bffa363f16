package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/model"
	"github.com/iliyamo/news-api/internal/repository"
)

// ArticleHandler serves /api/articles and the comment routes nested under it.
type ArticleHandler struct {
	Articles *repository.ArticleRepo
	Comments *repository.CommentRepo
	Topics   *repository.TopicRepo
	Users    *repository.UserRepo
	Owners   *repository.OwnerRepo
	now      func() time.Time
}

func NewArticleHandler(articles *repository.ArticleRepo, comments *repository.CommentRepo, topics *repository.TopicRepo,
	users *repository.UserRepo, owners *repository.OwnerRepo) *ArticleHandler {
	return &ArticleHandler{
		Articles: articles,
		Comments: comments,
		Topics:   topics,
		Users:    users,
		Owners:   owners,
		now:      time.Now,
	}
}

type createArticleReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic"`
}

// patchReq is shared by articles and comments. IncVotes stays raw so a
// non-numeric vote is reported as an invalid vote.
type patchReq struct {
	IncVotes json.RawMessage `json:"inc_votes"`
	Body     *string         `json:"body"`
}

func (r patchReq) hasVote() bool {
	return len(r.IncVotes) > 0 && string(r.IncVotes) != "null"
}

type createCommentReq struct {
	Body string `json:"body"`
}

// List serves the filtered, sorted and paged article listing.
func (h *ArticleHandler) List(c echo.Context) error {
	q := repository.ArticleQuery{
		SortBy: c.QueryParam("sort_by"),
		Topic:  c.QueryParam("topic"),
		Author: c.QueryParam("author"),
		Title:  c.QueryParam("title"),
		Desc:   true,
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if !repository.ValidArticleSort(q.SortBy) {
		return apperr.BadRequest(apperr.MsgInvalidSort)
	}
	switch strings.ToLower(c.QueryParam("order")) {
	case "", "desc":
	case "asc":
		q.Desc = false
	default:
		return apperr.BadRequest(apperr.MsgInvalidSort)
	}
	limit, page, err := pageParams(c)
	if err != nil {
		return err
	}
	q.Limit, q.Page = limit, page

	ctx, cancel := requestContext(c)
	defer cancel()

	articles, total, err := h.Articles.List(ctx, q)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		if err := h.checkFilters(ctx, q); err != nil {
			return err
		}
		if page > 1 {
			return apperr.NotFound()
		}
	}
	setPageHeaders(c, total, page, limit)
	return c.JSON(http.StatusOK, echo.Map{"articles": articles})
}

// checkFilters tells an existing topic or author without articles (an
// empty 200) from one that does not exist (404).
func (h *ArticleHandler) checkFilters(ctx context.Context, q repository.ArticleQuery) error {
	if q.Topic != "" {
		ok, err := h.Topics.Exists(ctx, q.Topic)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound()
		}
	}
	if q.Author != "" {
		ok, err := h.Users.UsernameExists(ctx, q.Author)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound()
		}
	}
	return nil
}

// Recent lists articles created in the last ten minutes.
func (h *ArticleHandler) Recent(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	articles, err := h.Articles.Since(ctx, h.now().Add(-recentWindow))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"articles": articles})
}

func (h *ArticleHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req createArticleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Title == "" || req.Body == "" || req.Topic == "" {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Articles.Create(ctx, model.Article{
		Title:  req.Title,
		Body:   req.Body,
		Topic:  req.Topic,
		Author: id.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"article": a})
}

func (h *ArticleHandler) Get(c echo.Context) error {
	articleID, err := pathID(c, "article_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Articles.Get(ctx, articleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"article": a})
}

// Patch votes on the article and/or replaces its body. Anyone may vote
// once; only the author or an admin may edit.
func (h *ArticleHandler) Patch(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	articleID, err := pathID(c, "article_id")
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

	owner, err := h.Owners.FindOwner(ctx, model.KindArticle, articleID)
	if err != nil {
		return err
	}
	if req.Body != nil {
		if err := auth.AuthorizeOwnerOrAdmin(id, owner); err != nil {
			return err
		}
	}

	if req.hasVote() {
		if err := h.Articles.Vote(ctx, articleID, id.Username, up); err != nil {
			return err
		}
	}
	if req.Body != nil {
		if err := h.Articles.UpdateBody(ctx, articleID, *req.Body); err != nil {
			return err
		}
	}
	a, err := h.Articles.Get(ctx, articleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"article": a})
}

// Delete removes the article and, by cascade, its comments and votes.
func (h *ArticleHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	articleID, err := pathID(c, "article_id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	owner, err := h.Owners.FindOwner(ctx, model.KindArticle, articleID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeOwnerOrAdmin(id, owner); err != nil {
		return err
	}
	if err := h.Articles.Delete(ctx, articleID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListComments pages an article's comments, newest first.
func (h *ArticleHandler) ListComments(c echo.Context) error {
	articleID, err := pathID(c, "article_id")
	if err != nil {
		return err
	}
	limit, page, err := pageParams(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.Owners.FindOwner(ctx, model.KindArticle, articleID); err != nil {
		return err
	}
	comments, total, err := h.Comments.ListByArticle(ctx, articleID, limit, page)
	if err != nil {
		return err
	}
	if len(comments) == 0 && page > 1 {
		return apperr.NotFound()
	}
	setPageHeaders(c, total, page, limit)
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// CreateComment posts a comment by the caller on the article.
func (h *ArticleHandler) CreateComment(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	articleID, err := pathID(c, "article_id")
	if err != nil {
		return err
	}
	var req createCommentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Body == "" {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.Owners.FindOwner(ctx, model.KindArticle, articleID); err != nil {
		return err
	}
	cm, err := h.Comments.Create(ctx, model.Comment{ArticleID: articleID, Author: id.Username, Body: req.Body})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"comment": cm})
}
