package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aussiebroadwan/npd/internal/npd/service"
	"github.com/aussiebroadwan/npd/internal/npd/store"
	"github.com/aussiebroadwan/npd/internal/npd/store/drivers/sqlite"
	"github.com/aussiebroadwan/npd/pkg/cryptox"
	"github.com/aussiebroadwan/npd/pkg/npdsdk"
	"github.com/aussiebroadwan/npd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application runs one command against the tax service with a session that
// survives between runs.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Output streams. Command results go to out, prompts to prompt.
	out    io.Writer
	prompt io.Writer

	// Core dependencies
	db     store.Store
	sealer *cryptox.Sealer
	loc    *time.Location

	// Services
	sessions *service.SessionService
	receipts *service.ReceiptService

	// sessionDone is set once the running command has stored or removed the
	// session itself.
	sessionDone bool

	client *npdsdk.Client
}

// Option customises an Application, mostly for tests.
type Option func(*Application)

// WithOutput redirects command output and prompts.
func WithOutput(out, prompt io.Writer) Option {
	return func(app *Application) {
		app.out = out
		app.prompt = prompt
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// New creates a new Application with the database opened and the client
// resumed from the last stored session, if any.
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		out:    os.Stdout,
		prompt: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "npd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	if cfg.SessionKey == "" {
		return nil, errors.New("NPD_SESSION_KEY is required to protect stored sessions")
	}
	sealer, err := cryptox.NewSealer(cfg.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session sealing: %w", err)
	}
	app.sealer = sealer

	app.loc = time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		app.loc = loc
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.sessions = &service.SessionService{Store: app.db, Sealer: app.sealer}
	app.receipts = &service.ReceiptService{Store: app.db}

	if err := app.initClient(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Close releases the database.
func (app *Application) Close() error {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite",
		app.cfg.DatabaseFile,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to open database %s: %w", app.cfg.DatabaseFile, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Debug("database migrations applied", "file", app.cfg.DatabaseFile)
	return nil
}

// initClient builds the SDK client, resuming the latest stored session.
func (app *Application) initClient(ctx context.Context) error {
	var opts []npdsdk.Option

	info, err := app.sessions.Load(ctx, app.cfg.Login)
	switch {
	case errors.Is(err, service.ErrNoSession):
		app.logger.Debug("no stored session")
	case err != nil:
		return fmt.Errorf("failed to load stored session: %w", err)
	default:
		app.logger.Debug("resuming stored session", "inn", info.INN, "expires_at", info.TokenExpiresAt)
		opts = append(opts, npdsdk.WithAuthInfo(info))
	}

	client, err := npdsdk.New(npdsdk.Config{
		BaseURL:      app.cfg.BaseURL,
		UserAgent:    app.cfg.UserAgent,
		AppVersion:   app.cfg.AppVersion,
		ExpiryMargin: app.cfg.ExpiryMargin,
		Location:     app.loc,
		HTTPClient: &http.Client{
			Timeout:   app.cfg.HTTPTimeout,
			Transport: slogx.NewTransport(nil, nil), // logger comes from the request context
		},
		Logger: app.logger,
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	app.client = client

	return nil
}

// persist stores the client's current session. Commands call it even after
// a failure, since a renewal may have succeeded before the failing step.
func (app *Application) persist(ctx context.Context) error {
	return app.persistWith(ctx, app.sessions)
}

func (app *Application) persistWith(ctx context.Context, sessions *service.SessionService) error {
	info, err := app.client.AuthInfo()
	if errors.Is(err, npdsdk.ErrIncompleteCredentials) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := sessions.Save(ctx, info); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// journal records an issued receipt together with the session that issued
// it, so a renewal made during submission is never lost while the receipt
// is kept, or the other way round.
func (app *Application) journal(ctx context.Context, res *npdsdk.IncomeResult) error {
	err := app.db.WithTx(ctx, func(tx store.Tx) error {
		receipts := &service.ReceiptService{Store: tx}
		if _, err := receipts.Record(ctx, app.client.INN(), res); err != nil {
			return err
		}
		return app.persistWith(ctx, &service.SessionService{Store: tx, Sealer: app.sealer})
	})
	if err != nil {
		return err
	}
	app.sessionDone = true
	return nil
}
