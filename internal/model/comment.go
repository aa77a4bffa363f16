package model

import "time"

// Comment mirrors a row of the comments table.
type Comment struct {
	CommentID uint64    `json:"comment_id"`
	ArticleID uint64    `json:"article_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}
