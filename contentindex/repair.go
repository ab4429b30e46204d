package contentindex

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// RepairResult summarizes one repair run.
type RepairResult struct {
	Repaired int
	Skipped  int
}

// Repairer rewrites unified content entries whose text went missing,
// reconstructing it from the source receipt.
type Repairer struct {
	store IndexStore
}

// NewRepairer creates a repairer.
func NewRepairer(s IndexStore) *Repairer {
	return &Repairer{store: s}
}

// Repair finds receipt-sourced entries with empty content text and
// reconstructs them in place. Entries whose receipt no longer yields
// usable content are left alone.
func (r *Repairer) Repair(ctx context.Context) (*RepairResult, error) {
	sourceType := store.SourceTypeReceipt
	entries, err := r.store.ListUnifiedContent(ctx, &store.FindUnifiedContent{
		SourceType:    &sourceType,
		EmptyTextOnly: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list empty content entries")
	}

	result := &RepairResult{}
	for _, entry := range entries {
		receipts, err := r.store.ListReceipts(ctx, &store.FindReceipt{IDs: []string{entry.SourceID}, Limit: 1})
		if err != nil {
			return result, errors.Wrapf(err, "failed to load receipt %s", entry.SourceID)
		}
		if len(receipts) == 0 {
			result.Skipped++
			continue
		}

		text, synthetic := ContentType(entry.ContentType).Reconstruct(receipts[0])
		if text == "" {
			result.Skipped++
			continue
		}

		entry.ContentText = text
		if entry.Metadata == "" || synthetic {
			metadata, err := provenanceMetadata("content_repair", synthetic)
			if err != nil {
				return result, err
			}
			entry.Metadata = metadata
		}
		if _, err := r.store.UpsertUnifiedContent(ctx, entry); err != nil {
			return result, errors.Wrapf(err, "failed to repair content entry for receipt %s", entry.SourceID)
		}
		result.Repaired++
	}

	slog.Info("content repair finished",
		slog.Int("repaired", result.Repaired),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
