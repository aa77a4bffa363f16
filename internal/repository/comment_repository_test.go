package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/news-api/internal/model"
)

var commentCols = []string{"comment_id", "article_id", "author", "body", "votes", "created_at"}

func TestCommentRepo_ListByArticle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)
	at := time.Date(2020, 4, 6, 12, 17, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM comments WHERE article_id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("ORDER BY created_at DESC, comment_id DESC LIMIT \\? OFFSET \\?").
		WithArgs(uint64(1), 5, 10).
		WillReturnRows(sqlmock.NewRows(commentCols).AddRow(9, 1, "icellusedkars", "Superficially charming", 0, at))

	got, total, err := repo.ListByArticle(context.Background(), 1, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(9), got[0].CommentID)
}

func TestCommentRepo_Vote_DuplicateRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comment_votes").
		WithArgs("lurker", uint64(3), false).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	err := repo.Vote(context.Background(), 3, "lurker", false)
	var me *mysql.MySQLError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, uint16(1062), me.Number)
}

func TestCommentRepo_Vote_MissingComment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO comment_votes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET votes = votes + ? WHERE comment_id = ?")).
		WithArgs(1, uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Vote(context.Background(), 404, "lurker", true), ErrNotFound)
}

func TestCommentRepo_Delete_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectExec("DELETE FROM comments").WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrNotFound)
}

func TestTopicRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTopicRepo(db)

	mock.ExpectQuery("SELECT slug, description FROM topics ORDER BY slug").
		WillReturnRows(sqlmock.NewRows([]string{"slug", "description"}).
			AddRow("cats", "Not dogs").
			AddRow("mitch", "The man, the Mitch, the legend"))
	topics, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "cats", topics[0].Slug)

	mock.ExpectQuery("SELECT 1 FROM topics").WithArgs("paper").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	ok, err := repo.Exists(context.Background(), "paper")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec("INSERT INTO topics").WithArgs("cats", "again").
		WillReturnError(&mysql.MySQLError{Number: 1062})
	err = repo.Create(context.Background(), model.Topic{Slug: "cats", Description: "again"})
	var me *mysql.MySQLError
	assert.ErrorAs(t, err, &me)
}
