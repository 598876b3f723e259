package npdsdk

import (
	"sync"
	"time"
)

// State is a position in the credential lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateRenewing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRenewing:
		return "renewing"
	default:
		return "unauthenticated"
	}
}

// AuthInfo is the exportable session state. Persist it and pass it back
// through WithAuthInfo to resume without logging in again.
type AuthInfo struct {
	INN            string    `json:"inn"`
	Token          string    `json:"token"`
	RefreshToken   string    `json:"refreshToken"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
	DeviceID       string    `json:"deviceId"`
}

// credentials holds the identity and token triple. Only the authenticator
// writes to it; everything else reads snapshots.
type credentials struct {
	mu           sync.RWMutex
	inn          string
	token        string
	refreshToken string
	expiresAt    time.Time
	state        State
}

type credentialSnapshot struct {
	inn          string
	token        string
	refreshToken string
	expiresAt    time.Time
	state        State
}

func (c *credentials) snapshot() credentialSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return credentialSnapshot{
		inn:          c.inn,
		token:        c.token,
		refreshToken: c.refreshToken,
		expiresAt:    c.expiresAt,
		state:        c.state,
	}
}

// seed installs resumed session state before the client is shared.
func (c *credentials) seed(inn, token, refreshToken string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inn = inn
	c.token = token
	c.refreshToken = refreshToken
	c.expiresAt = expiresAt
	if refreshToken != "" {
		c.state = StateAuthenticated
	}
}

// replaceLogin atomically swaps identity and all tokens after a login.
func (c *credentials) replaceLogin(inn, token, refreshToken string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inn = inn
	c.token = token
	c.refreshToken = refreshToken
	c.expiresAt = expiresAt
	c.state = StateAuthenticated
}

// replaceRenewal swaps the access token and expiry, and the refresh token
// only when the service issued a new one. Identity is left alone.
func (c *credentials) replaceRenewal(token, refreshToken string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
	c.expiresAt = expiresAt
	c.state = StateAuthenticated
}

// transition moves to next and returns the previous state.
func (c *credentials) transition(next State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = next
	return prev
}

func (c *credentials) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// settle leaves a transient state once a flight ends. A failed flight never
// touches the tokens, so whether a refresh token is held decides the outcome.
func (c *credentials) settle() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refreshToken != "" {
		c.state = StateAuthenticated
	} else {
		c.state = StateUnauthenticated
	}
	return c.state
}

// AuthInfo returns the session state needed to resume later. It fails with
// ErrIncompleteCredentials until a login or resumed session has provided a
// token, refresh token and expiry.
func (c *Client) AuthInfo() (AuthInfo, error) {
	s := c.creds.snapshot()
	if s.token == "" || s.refreshToken == "" || s.expiresAt.IsZero() {
		return AuthInfo{}, ErrIncompleteCredentials
	}

	return AuthInfo{
		INN:            s.inn,
		Token:          s.token,
		RefreshToken:   s.refreshToken,
		TokenExpiresAt: s.expiresAt,
		DeviceID:       c.deviceID,
	}, nil
}
