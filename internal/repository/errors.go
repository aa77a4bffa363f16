// Package repository holds the MySQL data access for users, topics,
// articles, comments and votes, plus the redis revocation ledger. Sentinel
// errors below let the HTTP layer map outcomes without inspecting SQL.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist, including
// when it disappears between a check and the mutation that follows it.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when a signup or rename collides with an
// existing username.
var ErrUsernameTaken = errors.New("username is taken")
