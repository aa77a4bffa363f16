package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	// Revocation cutoffs are compared against iat in milliseconds, so a
	// logout and a fresh login inside the same second stay ordered.
	jwt.TimePrecision = time.Millisecond
}

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Claims carried by an access token.
type Claims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Issued returns iat, or the zero time when absent.
func (c *Claims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// Expiry returns exp, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// Identity is the verified caller attached to an admitted request.
func (c *Claims) Identity() Identity {
	return Identity{Username: c.Username, Admin: c.Admin, IssuedAt: c.Issued()}
}

// AccessToken is a signed token and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// TokenIssuer signs and checks HS256 access tokens with a process-wide secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	i := &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	return i
}

// WithClock replaces the issuer's clock. Used by tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// TTL is the lifetime given to every issued token.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for username. iat is now, exp is now + TTL.
func (i *TokenIssuer) Issue(username string, admin bool) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Username: username,
		Admin:    admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Decode reads the claims without checking the signature. The result only
// selects a revocation ledger key and must never authorize anything.
func (i *TokenIssuer) Decode(raw string) (*Claims, bool) {
	var claims Claims
	if _, _, err := i.parser.ParseUnverified(raw, &claims); err != nil {
		return nil, false
	}
	if claims.Username == "" {
		return nil, false
	}
	return &claims, true
}

// Verify checks the signature and expiry and returns the verified claims.
func (i *TokenIssuer) Verify(raw string) (*Claims, error) {
	var claims Claims
	tok, err := i.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return i.secret, nil
	})
	switch {
	case err == nil && tok.Valid:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformedToken
	}
}
