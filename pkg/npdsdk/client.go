package npdsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/npd/pkg/cryptox"
	"github.com/aussiebroadwan/npd/pkg/slogx"
)

// Defaults mirror what the service's own web client sends.
const (
	DefaultBaseURL    = "https://lknpd.nalog.ru/api/v1"
	DefaultReferrer   = "https://lknpd.nalog.ru/"
	DefaultAppVersion = "1.0.0"
	DefaultSourceType = "WEB"
	DefaultUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 11_2_2) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/88.0.4324.192 Safari/537.36"
	DefaultAcceptLanguage = "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"

	// DefaultExpiryMargin is how long an access token must remain valid for
	// it to be reused without renewal.
	DefaultExpiryMargin = 60 * time.Second
)

// Config holds the construction-time settings of a Client. Zero values are
// replaced with the package defaults.
type Config struct {
	BaseURL        string
	Referrer       string
	AppVersion     string
	SourceType     string
	UserAgent      string
	AcceptLanguage string
	ExpiryMargin   time.Duration

	// Location is the time zone operation times are rendered in.
	// Default: time.Local
	Location *time.Location

	// Autologin starts a password login with Login and Password as soon as
	// the client is constructed. Calls made meanwhile wait for it.
	Autologin bool
	Login     string
	Password  string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// Now is the clock used for expiry checks. Default: time.Now
	Now func() time.Time
}

// Option customises a Client at construction.
type Option func(*Client) error

// WithAuthInfo resumes a previously exported session instead of starting
// unauthenticated.
func WithAuthInfo(info AuthInfo) Option {
	return func(c *Client) error {
		if (info.Token == "") != (info.RefreshToken == "") {
			return ErrPartialCredentials
		}
		if info.DeviceID != "" {
			c.deviceID = info.DeviceID
		}
		expiresAt := info.TokenExpiresAt
		if expiresAt.IsZero() {
			expiresAt = expiryFromJWT(info.Token)
		}
		c.creds.seed(info.INN, info.Token, info.RefreshToken, expiresAt)
		return nil
	}
}

// WithDeviceID pins the device id, for callers that persist it separately
// from the rest of the session.
func WithDeviceID(id string) Option {
	return func(c *Client) error {
		if len(id) < minDeviceIDLength {
			return fmt.Errorf("device id must be at least %d characters", minDeviceIDLength)
		}
		c.deviceID = id
		return nil
	}
}

const minDeviceIDLength = 21

// Client is a single-account session with the self-employed tax service.
// It is safe for concurrent use: authentication and renewal are shared
// between concurrent callers so that at most one is in flight at a time.
type Client struct {
	cfg      Config
	log      *slog.Logger
	deviceID string

	creds  credentials
	flight singleflight.Group

	// autologin is the pending result of the login started by New, nil when
	// Autologin was not requested. WaitAuth drains it once into the fields
	// below.
	autologin        <-chan singleflight.Result
	autologinOnce    sync.Once
	autologinDone    chan struct{}
	autologinProfile *Profile
	autologinErr     error
}

// New constructs a Client. When cfg.Autologin is set a login is started in
// the background; use WaitAuth to observe its outcome.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()

	c := &Client{
		cfg: cfg,
		log: cfg.Logger.With("component", "npdsdk"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.deviceID == "" {
		id, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("failed to generate device id: %w", err)
		}
		c.deviceID = id
	}

	if cfg.Autologin {
		if cfg.Login == "" || cfg.Password == "" {
			return nil, fmt.Errorf("autologin requires login and password")
		}
		// Calls made before the flight goroutine runs must already see a
		// login in progress, otherwise they fail as unauthenticated.
		c.creds.setState(StateAuthenticating)
		c.autologin = c.startFlight(context.Background(), StateAuthenticating, "password",
			func(ctx context.Context) (*flightResult, error) {
				return c.passwordLogin(ctx, cfg.Login, cfg.Password)
			})
	}

	return c, nil
}

func (cfg Config) withDefaults() Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Referrer == "" {
		cfg.Referrer = DefaultReferrer
	}
	if !strings.HasSuffix(cfg.Referrer, "/") {
		cfg.Referrer += "/"
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultAppVersion
	}
	if cfg.SourceType == "" {
		cfg.SourceType = DefaultSourceType
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = DefaultAcceptLanguage
	}
	if cfg.ExpiryMargin <= 0 {
		cfg.ExpiryMargin = DefaultExpiryMargin
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: slogx.NewTransport(nil, cfg.Logger),
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// DeviceID returns the stable identifier this client presents to the service.
func (c *Client) DeviceID() string { return c.deviceID }

// INN returns the taxpayer id of the authenticated subject, empty before the
// first login unless the session was resumed.
func (c *Client) INN() string { return c.creds.snapshot().inn }

// State reports where the client is in its credential lifecycle.
func (c *Client) State() State { return c.creds.snapshot().state }

func (c *Client) deviceInfo() DeviceInfo {
	return DeviceInfo{
		SourceDeviceID: c.deviceID,
		SourceType:     c.cfg.SourceType,
		AppVersion:     c.cfg.AppVersion,
		MetaDetails:    MetaDetails{UserAgent: c.cfg.UserAgent},
	}
}
