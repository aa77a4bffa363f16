package auth

import (
	"context"
	"time"
)

// Ledger records, per username, the instant before which every token is
// invalid. Cutoffs only move forward: concurrent writers keep the latest.
type Ledger interface {
	// MarkRevokedAfter raises the username's cutoff to at least notBefore
	// and keeps the entry for at least ttl. It returns the cutoff in effect.
	MarkRevokedAfter(ctx context.Context, username string, notBefore time.Time, ttl time.Duration) (time.Time, error)
	// Get returns the cutoff for username; found is false when none exists.
	Get(ctx context.Context, username string) (cutoff time.Time, found bool, err error)
}

// CutoffFor returns the cutoff that revokes the presented token along with
// everything older: now, or one millisecond past presentedIat when that is
// later (a token minted this millisecond or by a clock running ahead).
func CutoffFor(now, presentedIat time.Time) time.Time {
	if next := presentedIat.Add(time.Millisecond); next.After(now) {
		return next
	}
	return now
}

// Revoked reports whether a token issued at iat falls before cutoff.
// Comparison is at millisecond resolution, matching the token encoding.
func Revoked(iat, cutoff time.Time) bool {
	return iat.UnixMilli() < cutoff.UnixMilli()
}
