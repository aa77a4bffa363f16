package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/news-api/internal/database"
	"github.com/iliyamo/news-api/internal/model"
)

// articleSortColumns whitelists sort_by values; ORDER BY cannot be bound.
var articleSortColumns = map[string]string{
	"article_id":    "a.article_id",
	"author":        "a.author",
	"title":         "a.title",
	"topic":         "a.topic",
	"created_at":    "a.created_at",
	"votes":         "a.votes",
	"comment_count": "comment_count",
}

// ValidArticleSort reports whether sort_by names a sortable column.
func ValidArticleSort(sortBy string) bool {
	_, ok := articleSortColumns[sortBy]
	return ok
}

// ArticleQuery filters and pages the article listing.
type ArticleQuery struct {
	SortBy string // key of articleSortColumns
	Desc   bool
	Limit  int
	Page   int // 1-based
	Topic  string
	Author string
	Title  string // case-insensitive substring
}

const articleSelect = `
	SELECT a.article_id, a.title, a.body, a.votes, a.topic, a.author, a.created_at,
	       COUNT(c.comment_id) AS comment_count
	FROM articles a
	LEFT JOIN comments c ON c.article_id = a.article_id`

type ArticleRepo struct{ DB *sql.DB }

func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{DB: db} }

func scanArticle(row interface{ Scan(...any) error }) (model.Article, error) {
	var a model.Article
	err := row.Scan(&a.ArticleID, &a.Title, &a.Body, &a.Votes, &a.Topic, &a.Author, &a.CreatedAt, &a.CommentCount)
	return a, err
}

func (q ArticleQuery) where() (string, []any) {
	var conds []string
	var args []any
	if q.Topic != "" {
		conds = append(conds, "a.topic = ?")
		args = append(args, q.Topic)
	}
	if q.Author != "" {
		conds = append(conds, "a.author = ?")
		args = append(args, q.Author)
	}
	if q.Title != "" {
		conds = append(conds, "LOWER(a.title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Title))+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of articles (without bodies) and the total number
// of matching rows.
func (r *ArticleRepo) List(ctx context.Context, q ArticleQuery) ([]model.Article, int, error) {
	col, ok := articleSortColumns[q.SortBy]
	if !ok {
		col = articleSortColumns["created_at"]
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Page < 1 {
		q.Page = 1
	}
	where, args := q.where()

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles a"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := articleSelect + where +
		" GROUP BY a.article_id ORDER BY " + col + " " + dir + ", a.article_id " + dir +
		" LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, query, append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]model.Article, 0, q.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		a.Body = ""
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Since returns articles created at or after t, newest first.
func (r *ArticleRepo) Since(ctx context.Context, t time.Time) ([]model.Article, error) {
	rows, err := r.DB.QueryContext(ctx,
		articleSelect+" WHERE a.created_at >= ? GROUP BY a.article_id ORDER BY a.created_at DESC", t.UTC())
	if err != nil {
		return nil, fmt.Errorf("list new articles: %w", err)
	}
	defer rows.Close()

	out := make([]model.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ArticleRepo) Get(ctx context.Context, id uint64) (*model.Article, error) {
	a, err := scanArticle(r.DB.QueryRowContext(ctx,
		articleSelect+" WHERE a.article_id = ? GROUP BY a.article_id", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &a, nil
}

// Create inserts a and returns the stored row. An unknown topic or author
// surfaces as the driver's foreign key error.
func (r *ArticleRepo) Create(ctx context.Context, a model.Article) (*model.Article, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO articles (title, body, topic, author) VALUES (?, ?, ?, ?)",
		a.Title, a.Body, a.Topic, a.Author)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uint64(id))
}

func (r *ArticleRepo) UpdateBody(ctx context.Context, id uint64, body string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE articles SET body = ? WHERE article_id = ?", body, id); err != nil {
		return fmt.Errorf("update article %d: %w", id, err)
	}
	return nil
}

// Delete removes the article; comments and votes go with it by cascade.
func (r *ArticleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM articles WHERE article_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Vote records username's single vote on the article and applies it to the
// tally. A second vote by the same user fails on the votes primary key.
func (r *ArticleRepo) Vote(ctx context.Context, id uint64, username string, up bool) error {
	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO article_votes (username, article_id, up) VALUES (?, ?, ?)", username, id, up); err != nil {
			return fmt.Errorf("record article vote: %w", err)
		}
		res, err := tx.ExecContext(ctx, "UPDATE articles SET votes = votes + ? WHERE article_id = ?", voteDelta(up), id)
		if err != nil {
			return fmt.Errorf("apply article vote: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func voteDelta(up bool) int {
	if up {
		return 1
	}
	return -1
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
