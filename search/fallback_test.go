package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
)

type fakeReceiptLister struct {
	receipts []*store.Receipt
	lastFind *store.FindReceipt
}

func (f *fakeReceiptLister) ListReceipts(_ context.Context, find *store.FindReceipt) ([]*store.Receipt, error) {
	f.lastFind = find
	return f.receipts, nil
}

func testReceipt(id, merchant, category, fullText string, date time.Time) *store.Receipt {
	return &store.Receipt{
		ID:       id,
		Merchant: merchant,
		Category: category,
		FullText: fullText,
		Date:     date,
	}
}

func TestFallbackScoreTiers(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		receipt *store.Receipt
		query   string
		want    float64
	}{
		{"Merchant", testReceipt("r", "Starbucks Coffee", "Dining", "latte receipt", day), "starbucks", 0.9},
		{"Category", testReceipt("r", "SBX #42", "Coffee Shops", "latte receipt", day), "coffee", 0.7},
		{"FullText", testReceipt("r", "SBX #42", "Dining", "grande latte", day), "latte", 0.5},
		{"NoMatch", testReceipt("r", "SBX #42", "Dining", "grande latte", day), "hardware", 0.1},
		{"BlankQuery", testReceipt("r", "SBX #42", "Dining", "grande latte", day), "   ", 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fallbackScore(tt.receipt, tt.query))
		})
	}
}

func TestFallbackSearchOrdering(t *testing.T) {
	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lister := &fakeReceiptLister{receipts: []*store.Receipt{
		testReceipt("fulltext", "Other", "Other", "coffee beans", older),
		testReceipt("merchantOld", "Coffee Corner", "Dining", "", older),
		testReceipt("merchantNew", "Coffee Bean Co", "Dining", "", newer),
		testReceipt("none", "Hardware", "Tools", "nails", newer),
	}}

	resp, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{Query: "coffee"})
	require.NoError(t, err)
	require.Equal(t, 4, resp.TotalCount)
	require.Len(t, resp.Results, 4)

	// Merchant tier first, newer date breaking the tie, then full text,
	// then the no-match floor.
	require.Equal(t, "merchantNew", resp.Results[0].Receipt.ID)
	require.Equal(t, "merchantOld", resp.Results[1].Receipt.ID)
	require.Equal(t, "fulltext", resp.Results[2].Receipt.ID)
	require.Equal(t, "none", resp.Results[3].Receipt.ID)
	require.Equal(t, 0.1, resp.Results[3].Score)
}

func TestFallbackSearchBlankQueryPaginates(t *testing.T) {
	receipts := make([]*store.Receipt, 0, 5)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		receipts = append(receipts, testReceipt(string(rune('a'+i)), "M", "C", "", base.AddDate(0, 0, -i)))
	}
	lister := &fakeReceiptLister{receipts: receipts}

	resp, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{Query: "", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 5, resp.TotalCount)
	require.Len(t, resp.Results, 2)
	require.Equal(t, "a", resp.Results[0].Receipt.ID)
	require.Equal(t, 0.1, resp.Results[0].Score)

	page2, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{Query: "", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Equal(t, 5, page2.TotalCount)
	require.Len(t, page2.Results, 2)
	require.Equal(t, "c", page2.Results[0].Receipt.ID)

	tail, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{Query: "", Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, tail.Results, 1)

	past, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{Query: "", Limit: 2, Offset: 10})
	require.NoError(t, err)
	require.Empty(t, past.Results)
	require.Equal(t, 5, past.TotalCount)
}

func TestFallbackSearchForwardsFilters(t *testing.T) {
	lister := &fakeReceiptLister{}
	userID := "user-1"
	amountMin := 10.0
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewFallback(lister).Search(context.Background(), &FallbackRequest{
		Query:     "coffee",
		UserID:    &userID,
		AmountMin: &amountMin,
		DateFrom:  &from,
		Merchants: []string{"Starbucks"},
	})
	require.NoError(t, err)
	require.Equal(t, &userID, lister.lastFind.UserID)
	require.Equal(t, &amountMin, lister.lastFind.AmountMin)
	require.Equal(t, &from, lister.lastFind.DateFrom)
	require.Equal(t, []string{"Starbucks"}, lister.lastFind.Merchants)
}
