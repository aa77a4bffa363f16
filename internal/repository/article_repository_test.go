package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/news-api/internal/model"
)

var articleCols = []string{"article_id", "title", "body", "votes", "topic", "author", "created_at", "comment_count"}

func TestArticleRepo_List_FiltersAndPages(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)
	created := time.Date(2020, 7, 9, 20, 11, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles a WHERE a.topic = ? AND LOWER(a.title) LIKE ?")).
		WithArgs("mitch", `%100\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY a.article_id ORDER BY a.votes ASC, a.article_id ASC LIMIT ? OFFSET ?")).
		WithArgs("mitch", `%100\%%`, 5, 10).
		WillReturnRows(sqlmock.NewRows(articleCols).
			AddRow(3, "100% Mitch", "body", 0, "mitch", "icellusedkars", created, 2))

	got, total, err := repo.List(context.Background(), ArticleQuery{
		SortBy: "votes", Limit: 5, Page: 3, Topic: "mitch", Title: "100%",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(3), got[0].ArticleID)
	assert.Equal(t, 2, got[0].CommentCount)
	assert.Empty(t, got[0].Body, "listing omits bodies")
}

func TestArticleRepo_List_UnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.created_at DESC, a.article_id DESC")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(articleCols))

	got, total, err := repo.List(context.Background(), ArticleQuery{SortBy: "; DROP TABLE", Desc: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
	assert.True(t, ValidArticleSort("comment_count"))
	assert.False(t, ValidArticleSort("; DROP TABLE"))
}

func TestArticleRepo_Get_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)

	mock.ExpectQuery("WHERE a.article_id = ?").WithArgs(uint64(200)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 200)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArticleRepo_Vote(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO article_votes").WithArgs("butter_bridge", uint64(1), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET votes = votes + ? WHERE article_id = ?")).
		WithArgs(-1, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Vote(context.Background(), 1, "butter_bridge", false))
}

func TestArticleRepo_Vote_SecondVoteRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO article_votes").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.Vote(context.Background(), 1, "butter_bridge", true)
	var me *mysql.MySQLError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, uint16(1062), me.Number)
}

func TestArticleRepo_Delete_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewArticleRepo(db)

	mock.ExpectExec("DELETE FROM articles").WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
}

func TestOwnerRepo_FindOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOwnerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT author FROM comments WHERE comment_id = ?")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"author"}).AddRow("icellusedkars"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT author FROM articles WHERE article_id = ?")).
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	owner, err := repo.FindOwner(context.Background(), model.KindComment, 4)
	require.NoError(t, err)
	assert.Equal(t, "icellusedkars", owner)

	_, err = repo.FindOwner(context.Background(), model.KindArticle, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
