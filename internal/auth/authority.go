package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/storefront-be/internal/metrics"
	"github.com/hongminglow/storefront-be/internal/models"
	"github.com/hongminglow/storefront-be/internal/ratelimit"
	"github.com/hongminglow/storefront-be/internal/storage"
)

// Credentials is a login attempt. ClientIP feeds the throttle and may be empty.
type Credentials struct {
	Email    string
	Password string
	ClientIP string
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// RegisterInput is a registration request. An empty Role means customer.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthorityDeps wires the Authority. Limiter, Metrics and Logger are optional.
type AuthorityDeps struct {
	Store    storage.UserStore
	Tokens   *TokenManager
	Channels *Channels
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Auth
	Logger   zerolog.Logger
	HashCost int
}

// Authority verifies credentials, registers users and hands sessions to their channel.
type Authority struct {
	store     storage.UserStore
	tokens    *TokenManager
	channels  *Channels
	limiter   ratelimit.Limiter
	metrics   *metrics.Auth
	log       zerolog.Logger
	hashCost  int
	dummyHash string
	now       func() time.Time
}

// NewAuthority validates deps, fills defaults and precomputes the dummy hash.
func NewAuthority(deps AuthorityDeps) (*Authority, error) {
	if deps.Store == nil || deps.Tokens == nil || deps.Channels == nil {
		return nil, errors.New("authority requires a store, token manager and channels")
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Noop{}
	}
	if deps.HashCost == 0 {
		deps.HashCost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown so both failure paths cost one bcrypt run.
	dummy, err := HashPassword(uuid.NewString(), deps.HashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Authority{
		store:     deps.Store,
		tokens:    deps.Tokens,
		channels:  deps.Channels,
		limiter:   deps.Limiter,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		hashCost:  deps.HashCost,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Authenticate checks an email/password pair and issues a session token.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (a *Authority) Authenticate(ctx context.Context, c Credentials) (Session, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || c.Password == "" {
		a.metrics.Login("invalid_input")
		return Session{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if err := a.throttle(ctx, c.ClientIP, email); err != nil {
		a.metrics.Login("rate_limited")
		return Session{}, err
	}

	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ComparePassword(a.dummyHash, c.Password)
			a.metrics.Login("invalid_credentials")
			return Session{}, ErrInvalidCredentials
		}
		a.metrics.Login("error")
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if !ComparePassword(user.PasswordHash, c.Password) {
		a.metrics.Login("invalid_credentials")
		return Session{}, ErrInvalidCredentials
	}

	token, exp, err := a.tokens.Generate(user)
	if err != nil {
		a.metrics.Login("error")
		return Session{}, err
	}
	a.metrics.Login("success")
	a.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session issued")
	return Session{
		Token:     token,
		ExpiresAt: exp,
		Identity:  Identity{UserID: user.ID, Role: user.Role, ExpiresAt: exp},
	}, nil
}

// IssueSession delivers the session through the channel of its role.
func (a *Authority) IssueSession(w http.ResponseWriter, s Session) error {
	ch, ok := a.channels.For(s.Identity.Role)
	if !ok {
		return fmt.Errorf("no session channel for role %q", s.Identity.Role)
	}
	ch.Issue(w, s.Token, s.ExpiresAt)
	return nil
}

// Logout clears the cookie of role's channel. The other channel is left alone.
func (a *Authority) Logout(w http.ResponseWriter, role models.Role) error {
	ch, ok := a.channels.For(role)
	if !ok {
		return fmt.Errorf("%w: unknown session channel %q", ErrInvalidInput, role)
	}
	ch.Clear(w)
	return nil
}

// Register creates a user. Only an authenticated admin actor may create another admin.
func (a *Authority) Register(ctx context.Context, in RegisterInput, actor *Identity) (models.User, error) {
	role, err := models.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		a.metrics.Registration("invalid_input", "unknown")
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if role == models.RoleAdmin && (actor == nil || !actor.IsAdmin()) {
		a.metrics.Registration("forbidden", string(role))
		return models.User{}, fmt.Errorf("%w: only an admin may create admin accounts", ErrForbidden)
	}

	user, err := a.createUser(ctx, in.Name, in.Email, in.Password, role)
	switch {
	case errors.Is(err, ErrInvalidInput):
		a.metrics.Registration("invalid_input", string(role))
	case errors.Is(err, ErrDuplicateAccount):
		a.metrics.Registration("duplicate", string(role))
	case err != nil:
		a.metrics.Registration("error", string(role))
	default:
		a.metrics.Registration("created", string(role))
		ev := a.log.Info().Str("user_id", user.ID).Str("role", string(role))
		if actor != nil {
			ev = ev.Str("created_by", actor.UserID)
		}
		ev.Msg("user registered")
	}
	return user, err
}

// EnsureAdmin creates an admin account unless the email is already registered.
// It reports whether a user was created.
func (a *Authority) EnsureAdmin(ctx context.Context, name, email, password string) (models.User, bool, error) {
	existing, err := a.store.FindByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return models.User{}, false, fmt.Errorf("%w: %s is registered as %s", ErrDuplicateAccount, existing.Email, existing.Role)
		}
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, fmt.Errorf("find user: %w", err)
	}
	user, err := a.createUser(ctx, name, email, password, models.RoleAdmin)
	if err != nil {
		return models.User{}, false, err
	}
	a.log.Info().Str("user_id", user.ID).Msg("admin account bootstrapped")
	return user, true, nil
}

func (a *Authority) createUser(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, fmt.Errorf("%w: email address is malformed", ErrInvalidInput)
	}

	hash, err := HashPassword(password, a.hashCost)
	if err != nil {
		return models.User{}, err
	}
	now := a.now().UTC()
	created, err := a.store.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateAccount
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (a *Authority) throttle(ctx context.Context, ip, email string) error {
	keys := []string{"login:email:" + email}
	if ip != "" {
		keys = append(keys, "login:ip:"+ip)
	}
	for _, key := range keys {
		ok, err := a.limiter.Allow(ctx, key)
		if err != nil {
			a.log.Warn().Err(err).Msg("login throttle unavailable; allowing attempt")
			return nil
		}
		if !ok {
			return ErrRateLimited
		}
	}
	return nil
}
