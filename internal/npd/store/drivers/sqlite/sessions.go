package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/npd/internal/npd/domain"
)

type sessionsRepo struct {
	db  dbtx
	now func() time.Time
}

const sessionColumns = `inn, device_id, sealed_token, sealed_refresh_token, token_expires_at, created_at, updated_at`

func (r *sessionsRepo) GetSession(ctx context.Context, inn string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE inn = ?`, inn)
	return scanSession(row)
}

func (r *sessionsRepo) GetLatestSession(ctx context.Context) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	return scanSession(row)
}

func (r *sessionsRepo) SaveSession(ctx context.Context, s domain.Session) error {
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (inn, device_id, sealed_token, sealed_refresh_token, token_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(inn) DO UPDATE SET
			device_id = excluded.device_id,
			sealed_token = excluded.sealed_token,
			sealed_refresh_token = excluded.sealed_refresh_token,
			token_expires_at = excluded.token_expires_at,
			updated_at = excluded.updated_at
	`, s.INN, s.DeviceID, s.SealedToken, s.SealedRefreshToken, s.TokenExpiresAt.UTC(), updated.UTC(), updated.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.INN, err)
	}
	return nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, inn string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE inn = ?`, inn)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", inn, err)
	}
	return nil
}

func scanSession(row interface{ Scan(dest ...any) error }) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.INN,
		&s.DeviceID,
		&s.SealedToken,
		&s.SealedRefreshToken,
		&s.TokenExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}
