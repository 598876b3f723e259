package npdsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// Service is one line of an income receipt in the form the service accepts.
type Service struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Amount   Amount  `json:"amount"`
}

// IncomeItem is a caller supplied line. Amount is in roubles; a zero
// Quantity means 1.
type IncomeItem struct {
	Name     string
	Quantity float64
	Amount   float64
}

// IncomeInput is either a SingleIncome or a MultipleIncome.
type IncomeInput interface {
	normalize() ([]Service, time.Time, error)
}

// SingleIncome registers one line. A zero Date means now.
type SingleIncome struct {
	Name     string
	Quantity float64
	Amount   float64
	Date     time.Time
}

// MultipleIncome registers several lines on one receipt. A zero Date means now.
type MultipleIncome struct {
	Services []IncomeItem
	Date     time.Time
}

func (in SingleIncome) normalize() ([]Service, time.Time, error) {
	s, err := normalizeItem(IncomeItem{Name: in.Name, Quantity: in.Quantity, Amount: in.Amount})
	if err != nil {
		return nil, time.Time{}, err
	}
	return []Service{s}, in.Date, nil
}

func (in MultipleIncome) normalize() ([]Service, time.Time, error) {
	if len(in.Services) == 0 {
		return nil, time.Time{}, fmt.Errorf("%w: no services", ErrInvalidIncome)
	}

	services := make([]Service, 0, len(in.Services))
	for i, item := range in.Services {
		s, err := normalizeItem(item)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("service %d: %w", i, err)
		}
		services = append(services, s)
	}
	return services, in.Date, nil
}

func normalizeItem(item IncomeItem) (Service, error) {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return Service{}, fmt.Errorf("%w: empty name", ErrInvalidIncome)
	}

	qty := item.Quantity
	if qty == 0 {
		qty = 1
	}
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return Service{}, fmt.Errorf("%w: quantity is not a number", ErrInvalidIncome)
	}
	if qty < 0 {
		return Service{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidIncome)
	}

	amount, err := AmountFromFloat(item.Amount)
	if err != nil {
		return Service{}, err
	}

	return Service{Name: name, Quantity: qty, Amount: amount}, nil
}

// ReceiptURLs returns the JSON and printable locations of a receipt.
func (c *Client) ReceiptURLs(inn, receiptUUID string) (jsonURL, printURL string) {
	base := fmt.Sprintf("%s/receipt/%s/%s", c.cfg.BaseURL, inn, receiptUUID)
	return base + "/json", base + "/print"
}

// AddIncome registers income from an anonymous individual and returns the
// issued receipt, with its JSON rendering already fetched into Data.
func (c *Client) AddIncome(ctx context.Context, in IncomeInput) (*IncomeResult, error) {
	services, opTime, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := c.cfg.Now()
	if opTime.IsZero() {
		opTime = now
	}
	total := totalOf(services)

	raw, err := c.Call(ctx, http.MethodPost, "income", incomeRequest{
		PaymentType:                     "CASH",
		IgnoreMaxTotalIncomeRestriction: false,
		Client:                          incomeClient{IncomeType: "FROM_INDIVIDUAL"},
		RequestTime:                     DateToLocalISO(now, c.cfg.Location),
		OperationTime:                   DateToLocalISO(opTime, c.cfg.Location),
		Services:                        services,
		TotalAmount:                     total.String(),
	})
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return nil, &SubmissionError{Raw: httpErr.Body, Err: err}
		}
		return nil, err
	}

	var resp incomeResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ApprovedReceiptUUID == "" {
		return nil, &SubmissionError{Raw: raw}
	}

	inn := c.INN()
	jsonURL, printURL := c.ReceiptURLs(inn, resp.ApprovedReceiptUUID)
	c.log.InfoContext(ctx, "income registered",
		"receipt", resp.ApprovedReceiptUUID,
		"total", total.String(),
		"services", len(services),
	)

	data, err := c.fetchReceipt(ctx, jsonURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt %s: %w", resp.ApprovedReceiptUUID, err)
	}

	return &IncomeResult{
		ID:                  resp.ApprovedReceiptUUID,
		ApprovedReceiptUUID: resp.ApprovedReceiptUUID,
		JSONURL:             jsonURL,
		PrintURL:            printURL,
		TotalAmount:         total.String(),
		OperationTime:       opTime,
		Data:                data,
	}, nil
}

// fetchReceipt downloads the JSON rendering of a receipt. Receipt links are
// public, so no bearer token is attached.
func (c *Client) fetchReceipt(ctx context.Context, jsonURL string) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, jsonURL, referrerCreate, nil)
	if err != nil {
		return nil, err
	}
	return c.doJSON(req, "fetch receipt")
}
