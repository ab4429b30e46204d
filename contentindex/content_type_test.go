package contentindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noa10/mataresit-app-sub001/store"
)

func fullReceipt() *store.Receipt {
	return &store.Receipt{
		ID:               "receipt-1",
		Merchant:         "Starbucks Coffee",
		Category:         "Dining",
		FullText:         "Starbucks Coffee grande latte 6.50",
		Notes:            "client meeting",
		ItemsDescription: "grande latte; croissant",
		Total:            6.50,
		Currency:         "USD",
		Date:             time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestReconstructDirectFields(t *testing.T) {
	receipt := fullReceipt()
	tests := []struct {
		contentType ContentType
		want        string
	}{
		{ContentTypeMerchant, "Starbucks Coffee"},
		{ContentTypeFullText, "Starbucks Coffee grande latte 6.50"},
		{ContentTypeItemsDescription, "grande latte; croissant"},
		{ContentTypeNotes, "client meeting"},
		{ContentTypeCategory, "Dining"},
	}
	for _, tt := range tests {
		t.Run(string(tt.contentType), func(t *testing.T) {
			text, synthetic := tt.contentType.Reconstruct(receipt)
			require.Equal(t, tt.want, text)
			require.False(t, synthetic)
		})
	}
}

func TestReconstructSynthesizedFullText(t *testing.T) {
	receipt := fullReceipt()
	receipt.FullText = "  "

	text, synthetic := ContentTypeFullText.Reconstruct(receipt)
	require.Equal(t, "Starbucks Coffee 6.50 USD 2026-08-15", text)
	require.True(t, synthetic)
}

func TestReconstructSynthesizedWithoutAmount(t *testing.T) {
	receipt := fullReceipt()
	receipt.FullText = ""
	receipt.Total = 0

	text, synthetic := ContentTypeFullText.Reconstruct(receipt)
	require.Equal(t, "Starbucks Coffee 2026-08-15", text)
	require.True(t, synthetic)
}

func TestReconstructSkipsUnusableContent(t *testing.T) {
	empty := &store.Receipt{ID: "receipt-1"}

	for _, contentType := range AllContentTypes {
		text, _ := contentType.Reconstruct(empty)
		require.Empty(t, text, "content type %s should be skipped", contentType)
	}
}
