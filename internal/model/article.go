package model

import "time"

// Article is an articles row joined with its comment count.
type Article struct {
	ArticleID    uint64    `json:"article_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body,omitempty"`
	Votes        int       `json:"votes"`
	Topic        string    `json:"topic"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
	CommentCount int       `json:"comment_count"`
}
