package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/news-api/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func userRow(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"username", "name", "avatar_url", "admin", "hash", "salt"}).
		AddRow(u.Username, u.Name, u.AvatarURL, u.Admin, u.Hash, u.Salt)
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestUserRepo_FindByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	want := model.User{Username: "butter_bridge", Name: "jonny", Hash: "h", Salt: "s"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT username, name, avatar_url, admin, hash, salt FROM users WHERE username = ?")).
		WithArgs("butter_bridge").
		WillReturnRows(userRow(want))

	got, err := repo.FindByUsername(context.Background(), "butter_bridge")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestUserRepo_FindByUsername_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_Create_DuplicateIsUsernameTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Username: "butter_bridge"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepo_Update_RenameReadsBackNewName(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET username = ?, hash = ?, salt = ? WHERE username = ?")).
		WithArgs("bridge_butter", "newhash", "newsalt", "butter_bridge").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("bridge_butter").
		WillReturnRows(userRow(model.User{Username: "bridge_butter", Hash: "newhash", Salt: "newsalt"}))

	got, err := repo.Update(context.Background(), "butter_bridge", UserUpdate{
		Username: strp("bridge_butter"),
		Hash:     strp("newhash"),
		Salt:     strp("newsalt"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bridge_butter", got.Username)
}

func TestUserRepo_Update_NoopUpdateStillFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET admin = ? WHERE username = ?")).
		WithArgs(true, "jessjelly").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("jessjelly").
		WillReturnRows(userRow(model.User{Username: "jessjelly", Admin: true}))

	got, err := repo.Update(context.Background(), "jessjelly", UserUpdate{Admin: boolp(true)})
	require.NoError(t, err)
	assert.True(t, got.Admin)
}

func TestUserRepo_Update_RenameCollision(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET username").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	_, err := repo.Update(context.Background(), "butter_bridge", UserUpdate{Username: strp("icellusedkars")})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepo_UsernameExists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("rogersop").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	ok, err := repo.UsernameExists(context.Background(), "rogersop")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UsernameExists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
