package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/middleware"
	"github.com/iliyamo/news-api/internal/model"
	"github.com/iliyamo/news-api/internal/repository"
	"github.com/iliyamo/news-api/internal/service"
)

const testSecret = "handler-test-secret"

// testServer is the /api surface over sqlmock and miniredis.
type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	redis  *miniredis.Miniredis
	ledger *repository.RevocationRepo
	hasher *auth.PasswordHasher
	// tokens are minted a second in the past so a revocation written
	// during the test always lands after them.
	minter *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	log, _ := test.NewNullLogger()

	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	ledger := repository.NewRevocationRepo(rdb, "revoked")
	hasher := auth.NewPasswordHasher(1000)
	users := repository.NewUserRepo(db)
	accounts := service.NewAccountService(users, ledger, hasher, issuer, nil, log, time.Hour)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	g := e.Group("/api", middleware.Authenticate(
		auth.NewAuthenticator(issuer, ledger, time.Second, auth.BootstrapRoutes...), log, nil))
	mount(g, db, users, accounts)

	past := time.Now().Add(-time.Second)
	return &testServer{
		e:      e,
		mock:   mock,
		redis:  mr,
		ledger: ledger,
		hasher: hasher,
		minter: auth.NewTokenIssuer(testSecret, time.Hour).WithClock(func() time.Time { return past }),
	}
}

func mount(g *echo.Group, db *sql.DB, users *repository.UserRepo, accounts *service.AccountService) {
	topics := repository.NewTopicRepo(db)
	owners := repository.NewOwnerRepo(db)
	comments := repository.NewCommentRepo(db)
	ah := NewAuthHandler(accounts)
	uh := NewUserHandler(users, accounts, nil)
	th := NewTopicHandler(topics, nil)
	arh := NewArticleHandler(repository.NewArticleRepo(db), comments, topics, users, owners)
	ch := NewCommentHandler(comments, owners)

	g.GET("", Endpoints)
	g.POST("/users/signup", ah.Signup)
	g.POST("/users/login", ah.Login)
	g.POST("/users/logout", ah.Logout)
	g.GET("/users", uh.List)
	g.GET("/users/:username", uh.Get)
	g.PATCH("/users/:username", uh.Patch)
	g.GET("/users/:username/likes", uh.Likes)
	g.POST("/users/:username/revoke", uh.Revoke, middleware.RequireAdmin())
	g.PUT("/users/:username/avatar", uh.Avatar)
	g.GET("/topics", th.List)
	g.POST("/topics", th.Create)
	g.GET("/articles", arh.List)
	g.POST("/articles", arh.Create)
	g.GET("/articles/:article_id", arh.Get)
	g.PATCH("/articles/:article_id", arh.Patch)
	g.DELETE("/articles/:article_id", arh.Delete)
	g.GET("/articles/:article_id/comments", arh.ListComments)
	g.POST("/articles/:article_id/comments", arh.CreateComment)
	g.PATCH("/comments/:comment_id", ch.Patch)
	g.DELETE("/comments/:comment_id", ch.Delete)
}

func (s *testServer) token(t *testing.T, username string, admin bool) string {
	t.Helper()
	tok, err := s.minter.Issue(username, admin)
	require.NoError(t, err)
	return tok.Token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "BEARER "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func assertMsg(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.JSONEq(t, `{"msg":"`+msg+`"}`, rec.Body.String())
}

var articleCols = []string{"article_id", "title", "body", "votes", "topic", "author", "created_at", "comment_count"}

func articleRows(as ...model.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows(articleCols)
	for _, a := range as {
		rows.AddRow(a.ArticleID, a.Title, a.Body, a.Votes, a.Topic, a.Author, a.CreatedAt, a.CommentCount)
	}
	return rows
}

var commentCols = []string{"comment_id", "article_id", "author", "body", "votes", "created_at"}

func commentRows(cs ...model.Comment) *sqlmock.Rows {
	rows := sqlmock.NewRows(commentCols)
	for _, c := range cs {
		rows.AddRow(c.CommentID, c.ArticleID, c.Author, c.Body, c.Votes, c.CreatedAt)
	}
	return rows
}

func ownerRow(author string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"author"}).AddRow(author)
}

func userRows(us ...model.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"username", "name", "avatar_url", "admin", "hash", "salt"})
	for _, u := range us {
		rows.AddRow(u.Username, u.Name, u.AvatarURL, u.Admin, u.Hash, u.Salt)
	}
	return rows
}
