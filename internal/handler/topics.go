package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/middleware"
	"github.com/iliyamo/news-api/internal/model"
	"github.com/iliyamo/news-api/internal/repository"
)

// topicsRoute is the echo path whose cached responses a new topic invalidates.
const topicsRoute = "/api/topics"

type TopicHandler struct {
	Topics *repository.TopicRepo
	Cache  *middleware.ResponseCache // may be nil
}

func NewTopicHandler(topics *repository.TopicRepo, cache *middleware.ResponseCache) *TopicHandler {
	return &TopicHandler{Topics: topics, Cache: cache}
}

type createTopicReq struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *TopicHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	topics, err := h.Topics.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"topics": topics})
}

func (h *TopicHandler) Create(c echo.Context) error {
	var req createTopicReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t := model.Topic{Slug: strings.TrimSpace(req.Slug), Description: strings.TrimSpace(req.Description)}
	if t.Slug == "" || t.Description == "" {
		return apperr.BadRequest(apperr.MsgMissingFields)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Topics.Create(ctx, t); err != nil {
		return err
	}
	if h.Cache != nil {
		h.Cache.Invalidate(ctx, topicsRoute)
	}
	return c.JSON(http.StatusCreated, echo.Map{"topic": t})
}
