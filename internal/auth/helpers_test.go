package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/storefront-be/internal/ratelimit"
	"github.com/hongminglow/storefront-be/internal/storage/memory"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "storefront-test"
	adminCookie  = "authToken"
	clientCookie = "userAuth"
)

type fixture struct {
	store     *memory.Store
	tokens    *TokenManager
	channels  *Channels
	authority *Authority
	validator *Validator
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) fixture {
	t.Helper()
	store := memory.NewUserStore()
	tokens := NewTokenManager(testSecret, testIssuer, 720*time.Hour)
	channels, err := DefaultChannels(adminCookie, clientCookie, CookieOptions{Secure: true, MaxAge: tokens.TTL()})
	require.NoError(t, err)
	authority, err := NewAuthority(AuthorityDeps{
		Store:    store,
		Tokens:   tokens,
		Channels: channels,
		Limiter:  limiter,
		Logger:   zerolog.Nop(),
		HashCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return fixture{
		store:     store,
		tokens:    tokens,
		channels:  channels,
		authority: authority,
		validator: NewValidator(tokens, channels, nil),
	}
}
