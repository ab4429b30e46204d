package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// Vector storage requires PostgreSQL with the pgvector extension. The
// SQLite driver stores content text and metadata only; embeddings are
// silently dropped and the semantic signal is always zero here.

// UpsertUnifiedContent inserts or overwrites a unified content entry.
func (d *DB) UpsertUnifiedContent(ctx context.Context, upsert *store.UnifiedContent) (*store.UnifiedContent, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	stmt := `
		INSERT INTO unified_content (
			source_type, source_id, content_type, content_text,
			metadata, user_id, team_id, language, created_ts, updated_ts
		)
		VALUES (` + placeholders(10) + `)
		ON CONFLICT (source_type, source_id, content_type) DO UPDATE SET
			content_text = EXCLUDED.content_text,
			metadata = EXCLUDED.metadata,
			language = EXCLUDED.language,
			updated_ts = EXCLUDED.updated_ts
	`

	if _, err := d.db.ExecContext(ctx, stmt,
		string(upsert.SourceType), upsert.SourceID, upsert.ContentType,
		upsert.ContentText, upsert.Metadata, upsert.UserID,
		upsert.TeamID, upsert.Language, upsert.CreatedTs, upsert.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert unified content")
	}

	if err := d.db.QueryRowContext(ctx,
		`SELECT id, created_ts FROM unified_content WHERE source_type = ? AND source_id = ? AND content_type = ?`,
		string(upsert.SourceType), upsert.SourceID, upsert.ContentType,
	).Scan(&upsert.ID, &upsert.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to read back unified content")
	}

	return upsert, nil
}

// ListUnifiedContent lists unified content entries.
func (d *DB) ListUnifiedContent(ctx context.Context, find *store.FindUnifiedContent) ([]*store.UnifiedContent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.SourceType != nil {
		where, args = append(where, "source_type = ?"), append(args, string(*find.SourceType))
	}
	if find.SourceID != nil {
		where, args = append(where, "source_id = ?"), append(args, *find.SourceID)
	}
	if find.ContentType != nil {
		where, args = append(where, "content_type = ?"), append(args, *find.ContentType)
	}
	if find.EmptyTextOnly {
		where = append(where, "(content_text IS NULL OR content_text = '')")
	}

	query := `
		SELECT id, source_type, source_id, content_type, COALESCE(content_text, ''),
			COALESCE(metadata, '{}'), user_id, team_id, COALESCE(language, ''),
			created_ts, updated_ts
		FROM unified_content
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT ?"
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unified content")
	}
	defer rows.Close()

	list := []*store.UnifiedContent{}
	for rows.Next() {
		var entry store.UnifiedContent
		var sourceType string
		if err := rows.Scan(
			&entry.ID, &sourceType, &entry.SourceID, &entry.ContentType,
			&entry.ContentText, &entry.Metadata, &entry.UserID, &entry.TeamID,
			&entry.Language, &entry.CreatedTs, &entry.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan unified content")
		}
		entry.SourceType = store.SourceType(sourceType)
		list = append(list, &entry)
	}

	return list, rows.Err()
}

// DeleteUnifiedContent deletes all entries for a source record.
func (d *DB) DeleteUnifiedContent(ctx context.Context, delete *store.DeleteUnifiedContent) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM unified_content WHERE source_type = ? AND source_id = ?`,
		string(delete.SourceType), delete.SourceID,
	); err != nil {
		return errors.Wrap(err, "failed to delete unified content")
	}
	return nil
}

// SearchUnifiedContent applies the supplied filters. The semantic score
// is always zero on SQLite; the hybrid engine degrades to its text
// signals. A request that supplies a query vector is rejected so that
// callers notice the missing capability instead of silently losing the
// semantic signal.
func (d *DB) SearchUnifiedContent(ctx context.Context, opts *store.HybridSearchOptions) ([]*store.ContentCandidate, error) {
	if len(opts.Vector) > 0 {
		return nil, errors.New("vector search requires PostgreSQL with pgvector extension")
	}

	where, args := []string{"1 = 1"}, []any{}

	if len(opts.SourceTypes) > 0 {
		ph := make([]string, 0, len(opts.SourceTypes))
		for _, st := range opts.SourceTypes {
			args = append(args, string(st))
			ph = append(ph, "?")
		}
		where = append(where, "uc.source_type IN ("+strings.Join(ph, ", ")+")")
	}
	if len(opts.ContentTypes) > 0 {
		ph := make([]string, 0, len(opts.ContentTypes))
		for _, ct := range opts.ContentTypes {
			args = append(args, ct)
			ph = append(ph, "?")
		}
		where = append(where, "uc.content_type IN ("+strings.Join(ph, ", ")+")")
	}
	if opts.UserID != nil {
		where, args = append(where, "uc.user_id = ?"), append(args, *opts.UserID)
	}
	if opts.TeamID != nil {
		where, args = append(where, "uc.team_id = ?"), append(args, *opts.TeamID)
	}
	if opts.Language != nil {
		where, args = append(where, "uc.language = ?"), append(args, *opts.Language)
	}
	if len(opts.SourceIDs) > 0 {
		ph := make([]string, 0, len(opts.SourceIDs))
		for _, id := range opts.SourceIDs {
			args = append(args, id)
			ph = append(ph, "?")
		}
		where = append(where, "uc.source_id IN ("+strings.Join(ph, ", ")+")")
	}

	join := ""
	if opts.AmountMin != nil || opts.AmountMax != nil || opts.Currency != nil {
		join = " LEFT JOIN receipt r ON uc.source_type = 'receipt' AND uc.source_id = r.id"
		cond := []string{}
		if opts.AmountMin != nil {
			cond, args = append(cond, "r.total >= ?"), append(args, *opts.AmountMin)
		}
		if opts.AmountMax != nil {
			cond, args = append(cond, "r.total <= ?"), append(args, *opts.AmountMax)
		}
		if opts.Currency != nil {
			cond, args = append(cond, "r.currency = ?"), append(args, *opts.Currency)
		}
		where = append(where, "(uc.source_type != 'receipt' OR ("+strings.Join(cond, " AND ")+"))")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)

	query := `
		SELECT uc.id, uc.source_type, uc.source_id, uc.content_type,
			COALESCE(uc.content_text, ''), COALESCE(uc.metadata, '{}'),
			uc.user_id, uc.team_id, COALESCE(uc.language, ''),
			uc.created_ts, uc.updated_ts
		FROM unified_content uc` + join + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY uc.updated_ts DESC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search unified content")
	}
	defer rows.Close()

	candidates := []*store.ContentCandidate{}
	for rows.Next() {
		var c store.ContentCandidate
		var sourceType string
		if err := rows.Scan(
			&c.ID, &sourceType, &c.SourceID, &c.ContentType, &c.ContentText,
			&c.Metadata, &c.UserID, &c.TeamID, &c.Language,
			&c.CreatedTs, &c.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan search candidate")
		}
		c.SourceType = store.SourceType(sourceType)
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// ContentHealthStats computes per-bucket content completeness.
func (d *DB) ContentHealthStats(ctx context.Context) ([]*store.ContentHealthStat, error) {
	query := `
		SELECT source_type, content_type,
			COUNT(*) AS total,
			SUM(CASE WHEN content_text IS NOT NULL AND content_text != '' THEN 1 ELSE 0 END) AS non_empty
		FROM unified_content
		GROUP BY source_type, content_type
		ORDER BY source_type, content_type
	`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute content health stats")
	}
	defer rows.Close()

	list := []*store.ContentHealthStat{}
	for rows.Next() {
		var s store.ContentHealthStat
		var sourceType string
		if err := rows.Scan(&sourceType, &s.ContentType, &s.Total, &s.NonEmpty); err != nil {
			return nil, errors.Wrap(err, "failed to scan content health stat")
		}
		s.SourceType = store.SourceType(sourceType)
		if s.Total > 0 {
			s.NonEmptyPct = float64(s.NonEmpty) / float64(s.Total) * 100
		}
		list = append(list, &s)
	}

	return list, rows.Err()
}
