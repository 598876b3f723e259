package npdsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// tokenUsable reports whether the snapshot's access token stays valid for at
// least the expiry margin, so it cannot expire mid-request.
func (c *Client) tokenUsable(s credentialSnapshot) bool {
	if s.token == "" || s.expiresAt.IsZero() {
		return false
	}
	return c.cfg.Now().Add(c.cfg.ExpiryMargin).Before(s.expiresAt)
}

// Token returns an access token valid for at least the expiry margin. A
// token close to expiry is renewed with the refresh token; concurrent callers
// share one renewal, and callers arriving during a login wait for the login.
func (c *Client) Token(ctx context.Context) (string, error) {
	s := c.creds.snapshot()
	if c.tokenUsable(s) {
		return s.token, nil
	}

	if s.refreshToken == "" && s.state != StateAuthenticating {
		return "", ErrNotAuthenticated
	}

	res, err := c.await(ctx, c.startFlight(ctx, StateRenewing, "renew", c.renew))
	if err != nil {
		return "", err
	}
	return res.token, nil
}

// Call performs an authenticated request against endpoint (relative to the
// base URL) and returns the JSON response body.
//
// A non-nil payload makes the request a POST whatever method is given,
// except an explicit GET, which drops the payload. Without a payload an
// empty method means GET. There is no retry: transport, status and decoding
// failures are returned as they are.
func (c *Client) Call(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	switch {
	case method == http.MethodGet:
		payload = nil
	case payload != nil:
		method = http.MethodPost
	case method == "":
		method = http.MethodGet
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, c.url(endpoint), referrerCreate, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.doJSON(req, "call "+endpoint)
}

// doJSON executes req and requires a 2xx status with a JSON body.
func (c *Client) doJSON(req *http.Request, op string) (json.RawMessage, error) {
	status, body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &HTTPError{StatusCode: status, Body: body}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return raw, nil
}

// UserInfo returns the profile of the authenticated taxpayer.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	raw, err := c.Call(ctx, http.MethodGet, "user", nil)
	if err != nil {
		return nil, err
	}

	var info UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, &TransportError{Op: "call user", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	info.Raw = raw

	return &info, nil
}
