package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/npd/internal/npd/domain"
	"github.com/aussiebroadwan/npd/internal/npd/store"
	"github.com/aussiebroadwan/npd/pkg/idx"
)

type receiptsRepo struct {
	db  dbtx
	now func() time.Time
}

func (r *receiptsRepo) AppendReceipt(ctx context.Context, rec domain.Receipt) error {
	if rec.ID.IsZero() {
		return errors.New("receipt has no id")
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO receipts (id, inn, receipt_uuid, total_amount, json_url, print_url, operation_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.INN, rec.ReceiptUUID, rec.TotalAmount, rec.JSONURL, rec.PrintURL,
		rec.OperationTime.UTC(), created.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to append receipt[%s]: %w", rec.ReceiptUUID, err)
	}
	return nil
}

func (r *receiptsRepo) ListReceiptsByINN(ctx context.Context, inn string, limit int) ([]domain.Receipt, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, inn, receipt_uuid, total_amount, json_url, print_url, operation_time, created_at
		FROM receipts
		WHERE inn = ?
		ORDER BY operation_time DESC, id DESC
		LIMIT ?
	`, inn, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var out []domain.Receipt
	for rows.Next() {
		var (
			rec domain.Receipt
			id  string
		)
		if err := rows.Scan(
			&id,
			&rec.INN,
			&rec.ReceiptUUID,
			&rec.TotalAmount,
			&rec.JSONURL,
			&rec.PrintURL,
			&rec.OperationTime,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}
		if rec.ID, err = idx.Parse(id); err != nil {
			return nil, fmt.Errorf("receipt row %q: %w", id, err)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt rows: %w", err)
	}

	return out, nil
}
