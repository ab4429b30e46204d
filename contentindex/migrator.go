package contentindex

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/noa10/mataresit-app-sub001/store"
)

const defaultBatchSize = 100

// IndexStore is the store dependency of the migrator and repairer.
type IndexStore interface {
	ListReceiptsMissingContent(ctx context.Context, contentType string, limit int) ([]*store.Receipt, error)
	ListUnifiedContent(ctx context.Context, find *store.FindUnifiedContent) ([]*store.UnifiedContent, error)
	UpsertUnifiedContent(ctx context.Context, upsert *store.UnifiedContent) (*store.UnifiedContent, error)
	ListReceipts(ctx context.Context, find *store.FindReceipt) ([]*store.Receipt, error)
	ContentHealthStats(ctx context.Context) ([]*store.ContentHealthStat, error)
}

// Migrator backfills unified content entries for receipts that only
// have legacy per-receipt embeddings.
type Migrator struct {
	store     IndexStore
	limiter   *rate.Limiter
	batchSize int
}

// NewMigrator creates a migrator that upserts at most ratePerSecond
// entries per second.
func NewMigrator(s IndexStore, ratePerSecond float64) *Migrator {
	if ratePerSecond <= 0 {
		ratePerSecond = 20
	}
	return &Migrator{
		store:     s,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		batchSize: defaultBatchSize,
	}
}

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	Migrated int
	Skipped  int
}

// Backfill walks every content type and creates unified entries for
// receipts whose legacy embedding lacks one. Receipts without usable
// content for a type are skipped, not fabricated. Each created entry
// carries provenance metadata.
func (m *Migrator) Backfill(ctx context.Context) (*BackfillResult, error) {
	runID := shortuuid.New()
	result := &BackfillResult{}
	for _, contentType := range AllContentTypes {
		for {
			receipts, err := m.store.ListReceiptsMissingContent(ctx, string(contentType), m.batchSize)
			if err != nil {
				return result, errors.Wrapf(err, "failed to list receipts missing %s content", contentType)
			}
			if len(receipts) == 0 {
				break
			}

			migrated, skipped, err := m.backfillBatch(ctx, contentType, receipts)
			result.Migrated += migrated
			result.Skipped += skipped
			if err != nil {
				return result, err
			}
			slog.Info("backfilled unified content batch",
				slog.String("run_id", runID),
				slog.String("content_type", string(contentType)),
				slog.Int("migrated", migrated),
				slog.Int("skipped", skipped))

			// A short batch means the scan is exhausted. A batch that
			// was entirely skipped would otherwise loop forever since
			// skipped receipts stay unmatched.
			if len(receipts) < m.batchSize || migrated == 0 {
				break
			}
		}
	}
	return result, nil
}

func (m *Migrator) backfillBatch(ctx context.Context, contentType ContentType, receipts []*store.Receipt) (migrated, skipped int, err error) {
	for _, receipt := range receipts {
		text, synthetic := contentType.Reconstruct(receipt)
		if text == "" {
			skipped++
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			return migrated, skipped, errors.Wrap(err, "rate limiter interrupted")
		}

		metadata, err := provenanceMetadata("legacy_receipt_embedding", synthetic)
		if err != nil {
			return migrated, skipped, err
		}
		_, err = m.store.UpsertUnifiedContent(ctx, &store.UnifiedContent{
			SourceType:  store.SourceTypeReceipt,
			SourceID:    receipt.ID,
			ContentType: string(contentType),
			ContentText: text,
			Metadata:    metadata,
			UserID:      receipt.UserID,
			TeamID:      receipt.TeamID,
		})
		if err != nil {
			return migrated, skipped, errors.Wrapf(err, "failed to upsert unified content for receipt %s", receipt.ID)
		}
		migrated++
	}
	return migrated, skipped, nil
}

func provenanceMetadata(source string, synthetic bool) (string, error) {
	raw, err := json.Marshal(map[string]any{
		"migrated_from": source,
		"migrated_at":   time.Now().UTC().Format(time.RFC3339),
		"synthetic":     synthetic,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal provenance metadata")
	}
	return string(raw), nil
}
