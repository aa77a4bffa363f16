package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/news-api/internal/model"
)

const userColumns = "username, name, avatar_url, admin, hash, salt"

// UserRepo is the credential store.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate lists the columns to change; nil fields are left alone.
type UserUpdate struct {
	Username  *string
	Name      *string
	AvatarURL *string
	Admin     *bool
	Hash      *string
	Salt      *string
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Name == nil && u.AvatarURL == nil &&
		u.Admin == nil && u.Hash == nil && u.Salt == nil
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.Username, &u.Name, &u.AvatarURL, &u.Admin, &u.Hash, &u.Salt); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindByUsername returns the user or ErrNotFound.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return u, nil
}

// UsernameExists is the write-time uniqueness pre-check.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ? LIMIT 1", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check username %q: %w", username, err)
	}
	return true, nil
}

// Create inserts u. A duplicate primary key maps to ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, name, avatar_url, admin, hash, salt) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Name, u.AvatarURL, u.Admin, u.Hash, u.Salt)
	if isDuplicate(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update persists a credential or profile change for the user currently
// named current and returns the row as stored. Articles, comments and votes
// follow a rename through ON UPDATE CASCADE.
func (r *UserRepo) Update(ctx context.Context, current string, upd UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return r.FindByUsername(ctx, current)
	}
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.Admin != nil {
		add("admin", *upd.Admin)
	}
	if upd.Hash != nil {
		add("hash", *upd.Hash)
	}
	if upd.Salt != nil {
		add("salt", *upd.Salt)
	}
	args = append(args, current)

	_, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE username = ?", args...)
	if isDuplicate(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update user %q: %w", current, err)
	}

	// MySQL reports zero affected rows for a no-op update, so existence is
	// decided by reading the row back.
	name := current
	if upd.Username != nil {
		name = *upd.Username
	}
	return r.FindByUsername(ctx, name)
}

// Likes returns the articles username has up-voted, in vote order.
func (r *UserRepo) Likes(ctx context.Context, username string) ([]model.Article, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.article_id, a.title, a.votes, a.topic, a.author, a.created_at
		FROM article_votes v
		JOIN articles a ON a.article_id = v.article_id
		WHERE v.username = ? AND v.up = TRUE
		ORDER BY v.voted_at, a.article_id`, username)
	if err != nil {
		return nil, fmt.Errorf("list likes %q: %w", username, err)
	}
	defer rows.Close()

	out := make([]model.Article, 0)
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ArticleID, &a.Title, &a.Votes, &a.Topic, &a.Author, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
