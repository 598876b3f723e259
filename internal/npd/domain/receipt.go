package domain

import (
	"time"

	"github.com/aussiebroadwan/npd/pkg/idx"
)

// Receipt is a local journal entry for an income registered with the service.
type Receipt struct {
	ID            idx.ID
	INN           string
	ReceiptUUID   string
	TotalAmount   string // two decimals, as submitted
	JSONURL       string
	PrintURL      string
	OperationTime time.Time
	CreatedAt     time.Time
}
