package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Decision is the terminal state of an authentication attempt.
type Decision int

const (
	Rejected Decision = iota
	Admitted
)

func (d Decision) String() string {
	if d == Admitted {
		return "admitted"
	}
	return "rejected"
}

// Reason explains a decision for logs and metrics. It is never sent to the
// client, which only ever sees "Unauthorised".
type Reason string

const (
	ReasonBypass            Reason = "bypass"
	ReasonVerified          Reason = "verified"
	ReasonMissingHeader     Reason = "missing_header"
	ReasonMalformedHeader   Reason = "malformed_header"
	ReasonUndecodable       Reason = "undecodable"
	ReasonLedgerUnavailable Reason = "ledger_unavailable"
	ReasonRevoked           Reason = "revoked"
	ReasonInvalidSignature  Reason = "invalid_signature"
	ReasonExpired           Reason = "expired"
	ReasonMalformedToken    Reason = "malformed"
)

// Result of Authenticate. Claims is set only for a verified token.
type Result struct {
	Decision Decision
	Reason   Reason
	Claims   *Claims
	Err      error
}

func (r Result) Admitted() bool { return r.Decision == Admitted }

// Route identifies a method and exact path.
type Route struct {
	Method string
	Path   string
}

// BootstrapRoutes are reachable without a token.
var BootstrapRoutes = []Route{
	{Method: http.MethodPost, Path: "/api/users/signup"},
	{Method: http.MethodPost, Path: "/api/users/login"},
}

const bearerScheme = "BEARER"

// Authenticator decides whether a request carries a live token. The order
// of checks is fixed: header shape, unverified decode, revocation ledger,
// then signature and expiry. Nothing is admitted without verification
// except the bypass routes.
type Authenticator struct {
	issuer  *TokenIssuer
	ledger  Ledger
	timeout time.Duration
	bypass  map[Route]struct{}
}

func NewAuthenticator(issuer *TokenIssuer, ledger Ledger, ledgerTimeout time.Duration, bypass ...Route) *Authenticator {
	if ledgerTimeout <= 0 {
		ledgerTimeout = 2 * time.Second
	}
	set := make(map[Route]struct{}, len(bypass))
	for _, r := range bypass {
		set[r] = struct{}{}
	}
	return &Authenticator{issuer: issuer, ledger: ledger, timeout: ledgerTimeout, bypass: set}
}

// Authenticate runs the state machine for one request.
func (a *Authenticator) Authenticate(ctx context.Context, method, path, header string) Result {
	if _, ok := a.bypass[Route{Method: method, Path: path}]; ok {
		return Result{Decision: Admitted, Reason: ReasonBypass}
	}

	if header == "" {
		return reject(ReasonMissingHeader, nil)
	}
	raw, ok := bearerToken(header)
	if !ok {
		return reject(ReasonMalformedHeader, nil)
	}

	decoded, ok := a.issuer.Decode(raw)
	if !ok {
		return reject(ReasonUndecodable, nil)
	}

	lctx, cancel := context.WithTimeout(ctx, a.timeout)
	cutoff, found, err := a.ledger.Get(lctx, decoded.Username)
	cancel()
	if err != nil {
		return reject(ReasonLedgerUnavailable, err)
	}
	if found && Revoked(decoded.Issued(), cutoff) {
		return reject(ReasonRevoked, nil)
	}

	claims, err := a.issuer.Verify(raw)
	switch {
	case err == nil:
		return Result{Decision: Admitted, Reason: ReasonVerified, Claims: claims}
	case errors.Is(err, ErrExpired):
		return reject(ReasonExpired, err)
	case errors.Is(err, ErrInvalidSignature):
		return reject(ReasonInvalidSignature, err)
	default:
		return reject(ReasonMalformedToken, err)
	}
}

func reject(reason Reason, err error) Result {
	return Result{Decision: Rejected, Reason: reason, Err: err}
}

// bearerToken accepts exactly "BEARER <token>". The scheme is case
// sensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != bearerScheme {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
