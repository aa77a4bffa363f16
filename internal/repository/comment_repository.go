package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/news-api/internal/database"
	"github.com/iliyamo/news-api/internal/model"
)

const commentColumns = "comment_id, article_id, author, body, votes, created_at"

type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

func scanComment(row interface{ Scan(...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.CommentID, &c.ArticleID, &c.Author, &c.Body, &c.Votes, &c.CreatedAt)
	return c, err
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	defer rows.Close()
	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByArticle returns a page of an article's comments, newest first, and
// the article's total comment count.
func (r *CommentRepo) ListByArticle(ctx context.Context, articleID uint64, limit, page int) ([]model.Comment, int, error) {
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE article_id = ?", articleID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE article_id = ? ORDER BY created_at DESC, comment_id DESC LIMIT ? OFFSET ?",
		articleID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	out, err := collectComments(rows)
	return out, total, err
}

// Since returns comments created at or after t, newest first.
func (r *CommentRepo) Since(ctx context.Context, t time.Time) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE created_at >= ? ORDER BY created_at DESC", t.UTC())
	if err != nil {
		return nil, fmt.Errorf("list new comments: %w", err)
	}
	return collectComments(rows)
}

func (r *CommentRepo) Get(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := scanComment(r.DB.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE comment_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &c, nil
}

func (r *CommentRepo) Create(ctx context.Context, c model.Comment) (*model.Comment, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (article_id, author, body) VALUES (?, ?, ?)", c.ArticleID, c.Author, c.Body)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uint64(id))
}

func (r *CommentRepo) UpdateBody(ctx context.Context, id uint64, body string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE comments SET body = ? WHERE comment_id = ?", body, id); err != nil {
		return fmt.Errorf("update comment %d: %w", id, err)
	}
	return nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM comments WHERE comment_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Vote records username's single vote on the comment and applies it.
func (r *CommentRepo) Vote(ctx context.Context, id uint64, username string, up bool) error {
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO comment_votes (username, comment_id, up) VALUES (?, ?, ?)", username, id, up); err != nil {
			return fmt.Errorf("record comment vote: %w", err)
		}
		res, err := tx.ExecContext(ctx, "UPDATE comments SET votes = votes + ? WHERE comment_id = ?", voteDelta(up), id)
		if err != nil {
			return fmt.Errorf("apply comment vote: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
