package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/repository"
	"github.com/iliyamo/news-api/internal/storage"
)

// MySQL server error numbers the translator knows about.
const (
	erDupEntry        = 1062
	erRowIsReferenced = 1451
	erNoReferencedRow = 1452
	erOutOfRange      = 1264
	erTruncatedValue  = 1292
	erIncorrectValue  = 1366
)

// translate maps err to the status and message the client sees. ok is false
// for errors that have no client meaning; those become a 500.
func translate(err error) (status int, msg string, ok bool) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Msg, true
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, apperr.MsgNotFound, true
	case errors.Is(err, repository.ErrUsernameTaken):
		return http.StatusBadRequest, apperr.MsgUsernameTaken, true
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusBadRequest, apperr.MsgInvalidDataType, true
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, apperr.MsgUnavailable, true
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case erDupEntry, erRowIsReferenced, erNoReferencedRow:
			return http.StatusBadRequest, apperr.MsgBadRequest, true
		case erOutOfRange, erTruncatedValue, erIncorrectValue:
			return http.StatusBadRequest, apperr.MsgInvalidDataType, true
		}
		return 0, "", false
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, apperr.MsgRouteNotFound, true
		case http.StatusRequestEntityTooLarge:
			return he.Code, apperr.MsgTooLarge, true
		case http.StatusUnauthorized:
			return he.Code, apperr.MsgUnauthorised, true
		case http.StatusInternalServerError:
			return 0, "", false
		}
		if he.Code >= 400 && he.Code < 500 {
			return http.StatusBadRequest, apperr.MsgBadRequest, true
		}
		return he.Code, http.StatusText(he.Code), true
	}
	return 0, "", false
}

// ErrorHandler is installed as echo's HTTPErrorHandler. Every failure
// leaves as {"msg": ...}; unexpected errors are logged and never detailed.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg, ok := translate(err)
		if !ok {
			status, msg = http.StatusInternalServerError, apperr.MsgInternal
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"msg": msg})
		}
		if err != nil {
			log.WithError(err).Warn("write error response")
		}
	}
}
