package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/npd/internal/npd/domain"
	"github.com/aussiebroadwan/npd/internal/npd/store"
	"github.com/aussiebroadwan/npd/pkg/idx"
	"github.com/aussiebroadwan/npd/pkg/npdsdk"
)

// ReceiptService keeps a local journal of issued receipts.
type ReceiptService struct {
	Store store.Store
}

// Record journals a successful submission. Journal ids sort by operation
// time. Recording the same receipt twice is not an error.
func (s *ReceiptService) Record(ctx context.Context, inn string, res *npdsdk.IncomeResult) (domain.Receipt, error) {
	rec := domain.Receipt{
		ID:            idx.NewAt(res.OperationTime),
		INN:           inn,
		ReceiptUUID:   res.ApprovedReceiptUUID,
		TotalAmount:   res.TotalAmount,
		JSONURL:       res.JSONURL,
		PrintURL:      res.PrintURL,
		OperationTime: res.OperationTime,
	}

	err := s.Store.Receipts().AppendReceipt(ctx, rec)
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return domain.Receipt{}, fmt.Errorf("failed to record receipt: %w", err)
	}
	return rec, nil
}

// List returns the journal of inn, newest first. A limit of zero or less
// means everything.
func (s *ReceiptService) List(ctx context.Context, inn string, limit int) ([]domain.Receipt, error) {
	return s.Store.Receipts().ListReceiptsByINN(ctx, inn, limit)
}
