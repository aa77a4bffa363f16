package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type endpoint struct {
	Description string   `json:"description"`
	Auth        bool     `json:"auth"`
	Queries     []string `json:"queries,omitempty"`
	Body        []string `json:"body,omitempty"`
}

// endpoints describes the API for GET /api. Keep it in step with router.
var endpoints = map[string]endpoint{
	"GET /api":                                {Description: "serves this description of every endpoint", Auth: true},
	"GET /api/topics":                         {Description: "lists all topics", Auth: true},
	"POST /api/topics":                        {Description: "adds a topic", Auth: true, Body: []string{"slug", "description"}},
	"GET /api/articles":                       {Description: "lists articles without bodies; paging data in the Total-Count, Page and Total-Pages headers", Auth: true, Queries: []string{"sort_by", "order", "limit", "page", "topic", "author", "title"}},
	"GET /api/articles/new":                   {Description: "lists articles created in the last 10 minutes", Auth: true},
	"POST /api/articles":                      {Description: "adds an article authored by the caller", Auth: true, Body: []string{"title", "body", "topic"}},
	"GET /api/articles/:article_id":           {Description: "serves one article with its comment_count", Auth: true},
	"PATCH /api/articles/:article_id":         {Description: "votes once (inc_votes 1 or -1) and/or edits the body (author or admin)", Auth: true, Body: []string{"inc_votes", "body"}},
	"DELETE /api/articles/:article_id":        {Description: "deletes an article and its comments (author or admin)", Auth: true},
	"GET /api/articles/:article_id/comments":  {Description: "lists an article's comments, newest first", Auth: true, Queries: []string{"limit", "page"}},
	"POST /api/articles/:article_id/comments": {Description: "adds a comment by the caller", Auth: true, Body: []string{"body"}},
	"GET /api/comments/new":                   {Description: "lists comments created in the last 10 minutes", Auth: true},
	"PATCH /api/comments/:comment_id":         {Description: "votes once (inc_votes 1 or -1) and/or edits the body (author or admin)", Auth: true, Body: []string{"inc_votes", "body"}},
	"DELETE /api/comments/:comment_id":        {Description: "deletes a comment (author or admin)", Auth: true},
	"POST /api/users/signup":                  {Description: "creates an account", Body: []string{"username", "name", "avatar_url", "password"}},
	"POST /api/users/login":                   {Description: "exchanges credentials for an accessToken", Body: []string{"username", "password"}},
	"POST /api/users/logout":                  {Description: "revokes every token the caller holds", Auth: true},
	"GET /api/users":                          {Description: "lists all users", Auth: true},
	"GET /api/users/:username":                {Description: "serves one user", Auth: true},
	"PATCH /api/users/:username":              {Description: "updates a user (owner or admin; admin flag by admins only); credential changes sign the user out", Auth: true, Body: []string{"username", "name", "avatar_url", "password", "admin"}},
	"GET /api/users/:username/likes":          {Description: "lists the articles the user up-voted, in vote order", Auth: true},
	"POST /api/users/:username/revoke":        {Description: "signs the user out everywhere (admin)", Auth: true},
	"PUT /api/users/:username/avatar":         {Description: "uploads a multipart avatar image (owner or admin)", Auth: true, Body: []string{"avatar"}},
}

func Endpoints(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"endpoints": endpoints})
}
