package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/npd/internal/npd/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface, with one sub-repository per
// table. Tx-scoped stores return an error from WithTx so transactions
// never nest.
type Store interface {
	Sessions() Sessions
	Receipts() Receipts

	ApplyMigrations() error

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Sessions interface {
	// GetSession returns the stored session for a taxpayer.
	GetSession(ctx context.Context, inn string) (domain.Session, error)

	// GetLatestSession returns the most recently saved session, used when
	// no taxpayer is named.
	GetLatestSession(ctx context.Context) (domain.Session, error)

	// SaveSession inserts or replaces the session for s.INN and bumps updated_at.
	SaveSession(ctx context.Context, s domain.Session) error

	// DeleteSession forgets a taxpayer's session.
	DeleteSession(ctx context.Context, inn string) error
}

type Receipts interface {
	// AppendReceipt journals an issued receipt. Receipt UUIDs are unique.
	AppendReceipt(ctx context.Context, r domain.Receipt) error

	// ListReceiptsByINN returns a taxpayer's receipts, newest operation first.
	ListReceiptsByINN(ctx context.Context, inn string, limit int) ([]domain.Receipt, error)
}
