package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/news-api/internal/model"
)

// OwnerRepo resolves who owns an article or comment, for the
// owner-or-admin policy.
type OwnerRepo struct{ DB *sql.DB }

func NewOwnerRepo(db *sql.DB) *OwnerRepo { return &OwnerRepo{DB: db} }

var ownerQueries = map[model.ResourceKind]string{
	model.KindArticle: "SELECT author FROM articles WHERE article_id = ?",
	model.KindComment: "SELECT author FROM comments WHERE comment_id = ?",
}

// FindOwner returns the owning username or ErrNotFound.
func (r *OwnerRepo) FindOwner(ctx context.Context, kind model.ResourceKind, id uint64) (string, error) {
	q, ok := ownerQueries[kind]
	if !ok {
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
	var owner string
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find %s %d owner: %w", kind, id, err)
	}
	return owner, nil
}
