package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hongminglow/storefront-be/internal/models"
)

// SessionChannel is the cookie slot a role's session token travels through.
// Admin and customer sessions never share a channel, so a browser can hold both.
type SessionChannel interface {
	Role() models.Role
	CookieName() string
	// Issue sets the session cookie on the response.
	Issue(w http.ResponseWriter, token string, expiresAt time.Time)
	// Clear instructs the client to drop the cookie. Clearing an absent cookie is fine.
	Clear(w http.ResponseWriter)
	// Token returns the raw token carried by the request on this channel.
	Token(r *http.Request) (string, bool)
}

// CookieOptions are the attributes shared by every channel cookie.
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

type cookieChannel struct {
	role models.Role
	name string
	opts CookieOptions
}

// NewCookieChannel builds a channel delivering tokens through an HttpOnly, SameSite=None cookie.
func NewCookieChannel(role models.Role, name string, opts CookieOptions) SessionChannel {
	return &cookieChannel{role: role, name: name, opts: opts}
}

func (c *cookieChannel) Role() models.Role  { return c.role }
func (c *cookieChannel) CookieName() string { return c.name }

func (c *cookieChannel) Issue(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		Domain:   c.opts.Domain,
		Expires:  expiresAt,
		MaxAge:   int(c.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c *cookieChannel) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Domain:   c.opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c *cookieChannel) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Channels maps each role to its session channel.
type Channels struct {
	byRole map[models.Role]SessionChannel
}

// NewChannels registers one channel per role. Roles and cookie names must be unique.
func NewChannels(channels ...SessionChannel) (*Channels, error) {
	c := &Channels{byRole: make(map[models.Role]SessionChannel, len(channels))}
	names := make(map[string]models.Role, len(channels))
	for _, ch := range channels {
		if ch.CookieName() == "" {
			return nil, errors.New("session channel cookie name is empty")
		}
		if _, dup := c.byRole[ch.Role()]; dup {
			return nil, fmt.Errorf("duplicate session channel for role %q", ch.Role())
		}
		if other, dup := names[ch.CookieName()]; dup {
			return nil, fmt.Errorf("roles %q and %q share cookie %q", other, ch.Role(), ch.CookieName())
		}
		c.byRole[ch.Role()] = ch
		names[ch.CookieName()] = ch.Role()
	}
	return c, nil
}

// DefaultChannels builds the admin and customer cookie channels.
func DefaultChannels(adminCookie, customerCookie string, opts CookieOptions) (*Channels, error) {
	return NewChannels(
		NewCookieChannel(models.RoleCustomer, customerCookie, opts),
		NewCookieChannel(models.RoleAdmin, adminCookie, opts),
	)
}

// For returns the channel of role.
func (c *Channels) For(role models.Role) (SessionChannel, bool) {
	ch, ok := c.byRole[role]
	return ch, ok
}
