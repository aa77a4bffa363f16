// Package apperr defines the error type every handler returns for an
// expected client failure. The HTTP error handler turns it into the uniform
// {"msg": ...} body.
package apperr

import "net/http"

// Client-facing messages. Clients match on these strings, keep them stable.
const (
	MsgUnauthorised    = "Unauthorised"
	MsgMissingFields   = "Bad request - missing field(s)"
	MsgInvalidVote     = "Bad request - invalid vote"
	MsgInvalidSort     = "Bad request - invalid sort"
	MsgInvalidDataType = "Bad request - invalid data type"
	MsgInvalidUsername = "Bad request - invalid username"
	MsgBadRequest      = "Bad request"
	MsgUsernameTaken   = "Username is taken"
	MsgIncorrectPass   = "Incorrect password"
	MsgUserNotFound    = "User not found"
	MsgNotFound        = "Resource not found"
	MsgRouteNotFound   = "Route not found"
	MsgInternal        = "Internal Server Error"
	MsgUnavailable     = "Service Unavailable"
	MsgTooLarge        = "Payload too large"
	MsgTooManyRequests = "Too many requests"
)

// Error is an HTTP status paired with a client message.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

func New(status int, msg string) *Error { return &Error{Status: status, Msg: msg} }

// Unauthorised is used for every authentication and authorization failure;
// the cause is never disclosed.
func Unauthorised() *Error { return New(http.StatusUnauthorized, MsgUnauthorised) }

func BadRequest(msg string) *Error { return New(http.StatusBadRequest, msg) }

func NotFound() *Error { return New(http.StatusNotFound, MsgNotFound) }

func Unavailable() *Error { return New(http.StatusServiceUnavailable, MsgUnavailable) }
