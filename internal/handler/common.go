package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/middleware"
)

// requestTimeout bounds the I/O of a single handler.
const requestTimeout = 5 * time.Second

// recentWindow is how far back the /new listings look.
const recentWindow = 10 * time.Minute

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the JSON body into dst. A value of the wrong JSON type is an
// invalid data type, anything else unreadable is a plain bad request.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		var te *json.UnmarshalTypeError
		if errors.As(err, &he) && errors.As(he.Internal, &te) {
			return apperr.BadRequest(apperr.MsgInvalidDataType)
		}
		return apperr.BadRequest(apperr.MsgBadRequest)
	}
	return nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest(apperr.MsgInvalidDataType)
	}
	return id, nil
}

// parseVote accepts exactly 1 or -1. The raw value is kept so a string or a
// fraction is reported as an invalid vote rather than a decoding error.
func parseVote(raw json.RawMessage) (up bool, err error) {
	var n int
	if json.Unmarshal(raw, &n) != nil || (n != 1 && n != -1) {
		return false, apperr.BadRequest(apperr.MsgInvalidVote)
	}
	return n == 1, nil
}

// Paging bounds. Anything outside them is rejected like a bad sort.
const (
	maxPageLimit = 100
	maxOffset    = math.MaxInt32
)

// pageParams reads limit and page (defaults 10 and 1).
func pageParams(c echo.Context) (limit, page int, err error) {
	limit, page = 10, 1
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > maxPageLimit {
			return 0, 0, apperr.BadRequest(apperr.MsgInvalidSort)
		}
	}
	if v := c.QueryParam("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 || page-1 > maxOffset/limit {
			return 0, 0, apperr.BadRequest(apperr.MsgInvalidSort)
		}
	}
	return limit, page, nil
}

func setPageHeaders(c echo.Context, total, page, limit int) {
	h := c.Response().Header()
	h.Set("Total-Count", strconv.Itoa(total))
	h.Set("Page", strconv.Itoa(page))
	h.Set("Total-Pages", strconv.Itoa(int(math.Ceil(float64(total)/float64(limit)))))
}

// caller returns the verified identity or a 401; routes behind the gate
// always have one.
func caller(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return auth.Identity{}, apperr.Unauthorised()
	}
	return id, nil
}
