package contentindex

import (
	"context"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// Health reports per (source type, content type) index completeness as
// the percentage of entries with non-empty content text.
func Health(ctx context.Context, s IndexStore) ([]*store.ContentHealthStat, error) {
	stats, err := s.ContentHealthStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute content health stats")
	}
	return stats, nil
}
