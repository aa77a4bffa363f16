// Package service holds the account workflows that tie the credential
// store, the token issuer and the revocation ledger together: signup,
// login, logout, profile and credential changes and forced sign-out.
package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/auth"
	"github.com/iliyamo/news-api/internal/model"
	"github.com/iliyamo/news-api/internal/queue"
	"github.com/iliyamo/news-api/internal/repository"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// UserStore is the part of the credential store the account workflows use.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, current string, upd repository.UserUpdate) (*model.User, error)
}

type AccountService struct {
	users     UserStore
	ledger    auth.Ledger
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenIssuer
	events    EventPublisher
	log       logrus.FieldLogger
	revokeTTL time.Duration
	now       func() time.Time
}

// NewAccountService wires the account workflows. revokeTTL is how long a
// credential-change or forced sign-out entry is kept; it should be at least
// the token lifetime or old tokens come back when the entry expires.
func NewAccountService(users UserStore, ledger auth.Ledger, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer,
	events EventPublisher, log logrus.FieldLogger, revokeTTL time.Duration) *AccountService {
	if events == nil {
		events = NopPublisher{}
	}
	if revokeTTL <= 0 {
		revokeTTL = tokens.TTL()
	}
	return &AccountService{
		users:     users,
		ledger:    ledger,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		log:       log,
		revokeTTL: revokeTTL,
		now:       time.Now,
	}
}

// WithClock replaces the service clock. Used by tests.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

type SignupInput struct {
	Username  string
	Name      string
	AvatarURL string
	Password  string
}

// Signup creates an account. It does not log the user in.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if in.Username == "" || in.Name == "" || in.Password == "" {
		return nil, apperr.BadRequest(apperr.MsgMissingFields)
	}
	if !usernamePattern.MatchString(in.Username) {
		return nil, apperr.BadRequest(apperr.MsgInvalidUsername)
	}
	taken, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrUsernameTaken
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:  in.Username,
		Name:      in.Name,
		AvatarURL: in.AvatarURL,
		Hash:      s.hasher.Hash(in.Password, salt),
		Salt:      salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password and issues an access token.
func (s *AccountService) Login(ctx context.Context, username, password string) (auth.AccessToken, error) {
	if username == "" || password == "" {
		return auth.AccessToken{}, apperr.BadRequest(apperr.MsgMissingFields)
	}
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return auth.AccessToken{}, apperr.BadRequest(apperr.MsgUserNotFound)
	}
	if err != nil {
		return auth.AccessToken{}, err
	}
	if !s.hasher.Verify(password, u.Hash, u.Salt) {
		return auth.AccessToken{}, apperr.BadRequest(apperr.MsgIncorrectPass)
	}
	return s.tokens.Issue(u.Username, u.Admin)
}

// Logout cuts off every token the caller holds that was issued up to now,
// the presented one included. The entry lives as long as the presented
// token would have.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) error {
	now := s.now()
	ttl := claims.Expiry().Sub(now)
	cutoff, err := s.ledger.MarkRevokedAfter(ctx, claims.Username, auth.CutoffFor(now, claims.Issued()), ttl)
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Type:         queue.EventLoggedOut,
		Username:     claims.Username,
		Actor:        claims.Username,
		RevokedAfter: cutoff,
	})
	return nil
}

// UserPatch is a partial update of an account; nil fields are untouched.
type UserPatch struct {
	Username  *string
	Name      *string
	AvatarURL *string
	Password  *string
	Admin     *bool
}

func (p UserPatch) empty() bool {
	return p.Username == nil && p.Name == nil && p.AvatarURL == nil && p.Password == nil && p.Admin == nil
}

func (p UserPatch) touchesProfile() bool {
	return p.Username != nil || p.Name != nil || p.AvatarURL != nil || p.Password != nil
}

// UpdateUser applies patch to target on behalf of requester.
//
// The admin flag may only be changed by an admin. Every other field needs
// the requester to own the account or be an admin. A username, password or
// admin change cuts off the target's existing tokens: the ledger is written
// before the change is stored, so nothing is persisted while the ledger is
// down, and again afterwards to cover tokens issued in between.
func (s *AccountService) UpdateUser(ctx context.Context, requester auth.Identity, target string, patch UserPatch) (*model.User, error) {
	if patch.empty() {
		return nil, apperr.BadRequest(apperr.MsgMissingFields)
	}
	if patch.Username != nil && !usernamePattern.MatchString(*patch.Username) {
		return nil, apperr.BadRequest(apperr.MsgInvalidUsername)
	}
	if (patch.Password != nil && *patch.Password == "") || (patch.Name != nil && *patch.Name == "") {
		return nil, apperr.BadRequest(apperr.MsgMissingFields)
	}

	current, err := s.users.FindByUsername(ctx, target)
	if err != nil {
		return nil, err
	}

	if patch.Admin != nil {
		if err := auth.AuthorizeAdminChange(requester); err != nil {
			return nil, err
		}
	}
	if patch.touchesProfile() {
		if err := auth.AuthorizeOwnerOrAdmin(requester, current.Username); err != nil {
			return nil, err
		}
	}

	upd := repository.UserUpdate{Name: patch.Name, AvatarURL: patch.AvatarURL, Admin: patch.Admin}
	var changed []string
	if patch.Username != nil && *patch.Username != current.Username {
		taken, err := s.users.UsernameExists(ctx, *patch.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, repository.ErrUsernameTaken
		}
		upd.Username = patch.Username
		changed = append(changed, "username")
	}
	if patch.Password != nil {
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return nil, err
		}
		hash := s.hasher.Hash(*patch.Password, salt)
		upd.Hash, upd.Salt = &hash, &salt
		changed = append(changed, "password")
	}
	if patch.Admin != nil && *patch.Admin != current.Admin {
		changed = append(changed, "admin")
	}

	if len(changed) > 0 {
		if _, err := s.ledger.MarkRevokedAfter(ctx, current.Username, s.cutoff(requester, current.Username), s.revokeTTL); err != nil {
			return nil, err
		}
	}

	updated, err := s.users.Update(ctx, current.Username, upd)
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		cutoff, err := s.ledger.MarkRevokedAfter(ctx, current.Username, s.cutoff(requester, current.Username), s.revokeTTL)
		if err != nil {
			s.log.WithError(err).WithField("username", current.Username).
				Error("credential change stored but second revocation write failed")
		}
		ev := queue.AuthEvent{
			Type:         queue.EventCredentialsChanged,
			Username:     current.Username,
			Actor:        requester.Username,
			Fields:       changed,
			RevokedAfter: cutoff,
		}
		if upd.Username != nil {
			ev.NewUsername = *upd.Username
		}
		s.publish(ctx, ev)
	}
	return updated, nil
}

// SetAvatar checks that requester may edit target, stores the image via
// upload and saves the resulting URL.
func (s *AccountService) SetAvatar(ctx context.Context, requester auth.Identity, target string, upload func(ctx context.Context) (string, error)) (*model.User, error) {
	current, err := s.users.FindByUsername(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwnerOrAdmin(requester, current.Username); err != nil {
		return nil, err
	}
	url, err := upload(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.Update(ctx, current.Username, repository.UserUpdate{AvatarURL: &url})
}

// RevokeSessions is an admin's forced sign-out of target.
func (s *AccountService) RevokeSessions(ctx context.Context, requester auth.Identity, target string) error {
	if err := auth.AuthorizeAdminChange(requester); err != nil {
		return err
	}
	if _, err := s.users.FindByUsername(ctx, target); err != nil {
		return err
	}
	cutoff, err := s.ledger.MarkRevokedAfter(ctx, target, s.cutoff(requester, target), s.revokeTTL)
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Type:         queue.EventSessionsRevoked,
		Username:     target,
		Actor:        requester.Username,
		RevokedAfter: cutoff,
	})
	return nil
}

// cutoff is now, pushed past the requester's own token when the requester
// is revoking themselves.
func (s *AccountService) cutoff(requester auth.Identity, target string) time.Time {
	if requester.Username == target {
		return auth.CutoffFor(s.now(), requester.IssuedAt)
	}
	return s.now()
}

func (s *AccountService) publish(ctx context.Context, ev queue.AuthEvent) {
	ev.At = s.now().UTC()
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":    ev.Type,
			"username": ev.Username,
		}).Warn("security event not published")
	}
}
