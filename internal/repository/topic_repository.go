package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/news-api/internal/model"
)

type TopicRepo struct{ DB *sql.DB }

func NewTopicRepo(db *sql.DB) *TopicRepo { return &TopicRepo{DB: db} }

func (r *TopicRepo) List(ctx context.Context) ([]model.Topic, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT slug, description FROM topics ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]model.Topic, 0)
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.Slug, &t.Description); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// Create inserts a topic; a duplicate slug surfaces as the driver's 1062.
func (r *TopicRepo) Create(ctx context.Context, t model.Topic) error {
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO topics (slug, description) VALUES (?, ?)", t.Slug, t.Description); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

func (r *TopicRepo) Exists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM topics WHERE slug = ? LIMIT 1", slug).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check topic %q: %w", slug, err)
	}
	return true, nil
}
