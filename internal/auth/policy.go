package auth

import (
	"time"

	"github.com/iliyamo/news-api/internal/apperr"
)

// Identity is the authenticated requester.
type Identity struct {
	Username string
	Admin    bool
	// IssuedAt is the iat of the token the identity was read from; zero
	// when the identity did not come from a token.
	IssuedAt time.Time
}

// AuthorizeOwnerOrAdmin allows a mutation of a resource owned by owner when
// the requester owns it or is an admin.
func AuthorizeOwnerOrAdmin(requester Identity, owner string) error {
	if requester.Admin {
		return nil
	}
	if requester.Username != "" && requester.Username == owner {
		return nil
	}
	return apperr.Unauthorised()
}

// AuthorizeAdminChange allows setting or clearing any user's admin flag.
// Only admins may, and owning the target account does not help.
func AuthorizeAdminChange(requester Identity) error {
	if requester.Admin {
		return nil
	}
	return apperr.Unauthorised()
}
