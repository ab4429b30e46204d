// Package contentindex maintains the unified content index: backfilling
// entries from legacy per-receipt embeddings, repairing entries whose
// text was lost, and reporting index completeness.
package contentindex

import (
	"fmt"
	"strings"

	"github.com/noa10/mataresit-app-sub001/store"
)

// ContentType enumerates the content facets indexed per receipt.
type ContentType string

const (
	ContentTypeMerchant         ContentType = "merchant"
	ContentTypeFullText         ContentType = "full_text"
	ContentTypeItemsDescription ContentType = "items_description"
	ContentTypeNotes            ContentType = "notes"
	ContentTypeCategory         ContentType = "category"
)

// AllContentTypes lists every indexable content type in migration order.
var AllContentTypes = []ContentType{
	ContentTypeMerchant,
	ContentTypeFullText,
	ContentTypeItemsDescription,
	ContentTypeNotes,
	ContentTypeCategory,
}

// Reconstruct derives the content text for a receipt facet. The second
// return reports whether the text was synthesized from other fields
// rather than taken directly. Empty text means the receipt has nothing
// usable for this facet and no entry should be created.
func (t ContentType) Reconstruct(receipt *store.Receipt) (text string, synthetic bool) {
	switch t {
	case ContentTypeMerchant:
		return strings.TrimSpace(receipt.Merchant), false
	case ContentTypeFullText:
		if trimmed := strings.TrimSpace(receipt.FullText); trimmed != "" {
			return trimmed, false
		}
		return synthesizeFullText(receipt), true
	case ContentTypeItemsDescription:
		return strings.TrimSpace(receipt.ItemsDescription), false
	case ContentTypeNotes:
		return strings.TrimSpace(receipt.Notes), false
	case ContentTypeCategory:
		return strings.TrimSpace(receipt.Category), false
	}
	return "", false
}

// synthesizeFullText builds a stand-in document from the structured
// fields when the extracted full text is missing.
func synthesizeFullText(receipt *store.Receipt) string {
	merchant := strings.TrimSpace(receipt.Merchant)
	if merchant == "" {
		return ""
	}
	parts := []string{merchant}
	if receipt.Total > 0 {
		parts = append(parts, fmt.Sprintf("%.2f %s", receipt.Total, receipt.Currency))
	}
	if !receipt.Date.IsZero() {
		parts = append(parts, receipt.Date.Format("2006-01-02"))
	}
	return strings.Join(parts, " ")
}
