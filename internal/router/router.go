// Package router registers the HTTP routes and their middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/handler"
	"github.com/iliyamo/news-api/internal/middleware"
)

// API bundles what the /api group needs.
type API struct {
	Authenticator *auth.Authenticator
	Log           logrus.FieldLogger
	Metrics       *middleware.Metrics       // may be nil
	RateLimit     echo.MiddlewareFunc       // guards signup and login; may be nil
	Cache         *middleware.ResponseCache // may be nil

	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Topics   *handler.TopicHandler
	Articles *handler.ArticleHandler
	Comments *handler.CommentHandler
}

// RegisterRoutes registers the routes that live outside the gate: the
// health check and the metrics scrape endpoint.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, metrics *middleware.Metrics) {
	e.GET("/healthz", health.Health)
	if metrics != nil {
		e.GET("/metrics", metrics.Handler())
	}
}

// RegisterAPI mounts /api. Every route goes through the authenticator;
// signup and login are let through without a token by the authenticator
// itself.
func RegisterAPI(e *echo.Echo, a API) {
	g := e.Group("/api", middleware.Authenticate(a.Authenticator, a.Log, a.Metrics))

	g.GET("", handler.Endpoints)
	g.GET("/", handler.Endpoints)

	limit := a.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	users := g.Group("/users")
	users.POST("/signup", a.Auth.Signup, limit)
	users.POST("/login", a.Auth.Login, limit)
	users.POST("/logout", a.Auth.Logout)
	users.GET("", a.Users.List)
	users.GET("/:username", a.Users.Get)
	users.PATCH("/:username", a.Users.Patch)
	users.GET("/:username/likes", a.Users.Likes)
	users.POST("/:username/revoke", a.Users.Revoke, middleware.RequireAdmin())
	users.PUT("/:username/avatar", a.Users.Avatar)

	var cached []echo.MiddlewareFunc
	if a.Cache != nil {
		cached = append(cached, a.Cache.Middleware())
	}
	g.GET("/topics", a.Topics.List, cached...)
	g.POST("/topics", a.Topics.Create)

	articles := g.Group("/articles")
	articles.GET("", a.Articles.List)
	articles.GET("/new", a.Articles.Recent)
	articles.POST("", a.Articles.Create)
	articles.GET("/:article_id", a.Articles.Get)
	articles.PATCH("/:article_id", a.Articles.Patch)
	articles.DELETE("/:article_id", a.Articles.Delete)
	articles.GET("/:article_id/comments", a.Articles.ListComments)
	articles.POST("/:article_id/comments", a.Articles.CreateComment)

	comments := g.Group("/comments")
	comments.GET("/new", a.Comments.Recent)
	comments.PATCH("/:comment_id", a.Comments.Patch)
	comments.DELETE("/:comment_id", a.Comments.Delete)
}
