package store

import (
	"context"
	"time"
)

// Receipt is the read model of the external receipt record store,
// queried for filter predicates and fallback scoring. This core never
// writes receipts.
type Receipt struct {
	ID     string
	UID    string
	UserID string
	TeamID string

	Merchant         string
	Category         string
	FullText         string
	Notes            string
	ItemsDescription string

	Total    float64
	Currency string
	Date     time.Time

	CreatedTs int64
}

// FindReceipt is the find condition for receipts.
type FindReceipt struct {
	IDs      []string
	UserID   *string
	TeamID   *string
	DateFrom *time.Time
	DateTo   *time.Time

	AmountMin *float64
	AmountMax *float64
	Currency  *string

	Merchants []string

	Limit  int
	Offset int
}

// ListReceipts lists receipts from the external record store.
func (s *Store) ListReceipts(ctx context.Context, find *FindReceipt) ([]*Receipt, error) {
	return s.driver.ListReceipts(ctx, find)
}

// ListReceiptsMissingContent finds receipts that have a legacy embedding
// but no unified content entry for the given content type. Used by the
// migration backfill.
func (s *Store) ListReceiptsMissingContent(ctx context.Context, contentType string, limit int) ([]*Receipt, error) {
	return s.driver.ListReceiptsMissingContent(ctx, contentType, limit)
}
