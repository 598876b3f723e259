package npdsdk

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// flightKey is shared by every operation that mutates credentials, so a
// login, an SMS verification and a renewal can never overlap.
const flightKey = "credentials"

// flightResult is what a settled authentication or renewal hands to every
// caller that waited on it.
type flightResult struct {
	token   string
	profile *Profile
}

// startFlight runs fn unless an authentication or renewal is already in
// flight, in which case the returned channel yields that operation's result.
// fn runs detached from the starter's cancellation so that one caller giving
// up does not fail everyone else waiting on the same operation.
func (c *Client) startFlight(
	ctx context.Context,
	next State,
	op string,
	fn func(ctx context.Context) (*flightResult, error),
) <-chan singleflight.Result {
	ctx = context.WithoutCancel(ctx)

	return c.flight.DoChan(flightKey, func() (any, error) {
		prev := c.creds.transition(next)
		c.log.DebugContext(ctx, "credential state change", "op", op, "from", prev, "to", next)

		res, err := fn(ctx)
		settled := c.creds.settle()
		if err != nil {
			c.log.WarnContext(ctx, "authentication failed", "op", op, "state", settled, "error", err)
			return nil, err
		}

		c.log.DebugContext(ctx, "credential state change", "op", op, "from", next, "to", settled)
		return res, nil
	})
}

// await waits for a flight to settle or for the caller's context to end.
func (c *Client) await(ctx context.Context, ch <-chan singleflight.Result) (*flightResult, error) {
	select {
	case r := <-ch:
		if r.Shared {
			c.log.DebugContext(ctx, "joined in-flight authentication")
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*flightResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) profileOf(res *flightResult) *Profile {
	if res.profile != nil {
		return res.profile
	}
	return &Profile{INN: c.INN()}
}

// ============================================================================
// Password Login
// ============================================================================

// Auth logs in with the taxpayer's login (INN) and password. If another
// authentication or renewal is already running, Auth waits for that one and
// returns its outcome instead of sending a second request.
func (c *Client) Auth(ctx context.Context, login, password string) (*Profile, error) {
	ch := c.startFlight(ctx, StateAuthenticating, "password", func(ctx context.Context) (*flightResult, error) {
		return c.passwordLogin(ctx, login, password)
	})

	res, err := c.await(ctx, ch)
	if err != nil {
		return nil, err
	}
	return c.profileOf(res), nil
}

func (c *Client) passwordLogin(ctx context.Context, login, password string) (*flightResult, error) {
	status, body, err := c.postJSON(ctx, "password login", "auth/lkfl", referrerLogin, passwordAuthRequest{
		Username:   login,
		Password:   password,
		DeviceInfo: c.deviceInfo(),
	})
	if err != nil {
		return nil, err
	}
	return c.completeLogin("password", status, body)
}

// completeLogin applies a login or verification response. A response
// lacking either token is a failed login whatever its status.
func (c *Client) completeLogin(op string, status int, body []byte) (*flightResult, error) {
	var resp authResponse
	if err := decodeAuthBody(op+" login", status, body, &resp); err != nil {
		return nil, err
	}

	if resp.RefreshToken == "" || resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = defaultAuthFailureMessage
		}
		return nil, &AuthError{Op: op, StatusCode: status, Message: msg}
	}

	inn := c.INN()
	if resp.Profile != nil && resp.Profile.INN != "" {
		inn = resp.Profile.INN
	}

	c.creds.replaceLogin(inn, resp.Token, resp.RefreshToken, parseExpiry(resp.TokenExpireIn, resp.Token))
	c.log.Info("authenticated", "op", op, "inn", inn)

	return &flightResult{token: resp.Token, profile: resp.Profile}, nil
}

// ============================================================================
// SMS Challenge Login
// ============================================================================

// RequestSMSCode asks the service to text a confirmation code to phone. The
// returned challenge is passed back to AuthViaSMSCode once the user has the
// code. Credentials are not touched.
func (c *Client) RequestSMSCode(ctx context.Context, phone string) (*SMSChallenge, error) {
	status, body, err := c.postJSON(ctx, "sms start", "auth/challenge/sms/start", referrerLogin, smsStartRequest{
		Phone:               phone,
		RequireTpToBeActive: true,
	})
	if err != nil {
		return nil, err
	}

	var resp smsStartResponse
	if err := decodeAuthBody("sms start", status, body, &resp); err != nil {
		return nil, err
	}
	if resp.ChallengeToken == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no challenge token issued"
		}
		return nil, &AuthError{Op: "sms-start", StatusCode: status, Message: msg}
	}

	return &SMSChallenge{
		ChallengeToken: resp.ChallengeToken,
		Phone:          phone,
		DeviceID:       c.deviceID,
	}, nil
}

// AuthViaSMSCode completes an SMS login started with RequestSMSCode. It
// shares the single in-flight slot with Auth and token renewal.
func (c *Client) AuthViaSMSCode(ctx context.Context, code, challengeToken, phone string) (*Profile, error) {
	ch := c.startFlight(ctx, StateAuthenticating, "sms", func(ctx context.Context) (*flightResult, error) {
		status, body, err := c.postJSON(ctx, "sms verify", "auth/challenge/sms/verify", referrerLogin, smsVerifyRequest{
			ChallengeToken: challengeToken,
			Phone:          phone,
			Code:           code,
			DeviceInfo:     c.deviceInfo(),
		})
		if err != nil {
			return nil, err
		}
		return c.completeLogin("sms", status, body)
	})

	res, err := c.await(ctx, ch)
	if err != nil {
		return nil, err
	}
	return c.profileOf(res), nil
}

// ============================================================================
// Autologin
// ============================================================================

// WaitAuth blocks until the login started by Config.Autologin settles and
// returns its outcome. Without autologin it reports whether the client
// already holds a session.
func (c *Client) WaitAuth(ctx context.Context) (*Profile, error) {
	if c.autologin == nil {
		if c.creds.snapshot().refreshToken == "" {
			return nil, ErrNotAuthenticated
		}
		return &Profile{INN: c.INN()}, nil
	}

	c.autologinOnce.Do(func() {
		c.autologinDone = make(chan struct{})
		go func() {
			defer close(c.autologinDone)
			r := <-c.autologin
			if r.Err != nil {
				c.autologinErr = r.Err
				return
			}
			c.autologinProfile = c.profileOf(r.Val.(*flightResult))
		}()
	})

	select {
	case <-c.autologinDone:
		return c.autologinProfile, c.autologinErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ============================================================================
// Token Renewal
// ============================================================================

// renew exchanges the stored refresh token for a new access token. It
// re-checks the current token first, since another caller may have renewed
// between the expiry check and this flight starting.
func (c *Client) renew(ctx context.Context) (*flightResult, error) {
	s := c.creds.snapshot()
	if c.tokenUsable(s) {
		return &flightResult{token: s.token}, nil
	}
	if s.refreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	status, body, err := c.postJSON(ctx, "token renewal", "auth/token", referrerSales, renewRequest{
		DeviceInfo:   c.deviceInfo(),
		RefreshToken: s.refreshToken,
	})
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := decodeAuthBody("token renewal", status, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no access token issued"
		}
		return nil, &AuthError{Op: "renew", StatusCode: status, Message: msg}
	}

	c.creds.replaceRenewal(resp.Token, resp.RefreshToken, parseExpiry(resp.TokenExpireIn, resp.Token))
	c.log.Debug("access token renewed", "rotated_refresh", resp.RefreshToken != "")

	return &flightResult{token: resp.Token}, nil
}
