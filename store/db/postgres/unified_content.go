package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// UpsertUnifiedContent inserts or overwrites a unified content entry on
// its unique (source_type, source_id, content_type) key. Re-embedding
// overwrites text, vector and metadata rather than duplicating.
func (d *DB) UpsertUnifiedContent(ctx context.Context, upsert *store.UnifiedContent) (*store.UnifiedContent, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	var vector any
	if upsert.Embedding != nil {
		vector = pgvector.NewVector(upsert.Embedding)
	}

	stmt := `
		INSERT INTO unified_content (
			source_type, source_id, content_type, content_text, embedding,
			metadata, user_id, team_id, language, created_ts, updated_ts
		)
		VALUES (` + placeholders(11) + `)
		ON CONFLICT (source_type, source_id, content_type) DO UPDATE SET
			content_text = EXCLUDED.content_text,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			language = EXCLUDED.language,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts
	`

	err := d.db.QueryRowContext(ctx, stmt,
		string(upsert.SourceType), upsert.SourceID, upsert.ContentType,
		upsert.ContentText, vector, upsert.Metadata, upsert.UserID,
		upsert.TeamID, upsert.Language, upsert.CreatedTs, upsert.UpdatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert unified content")
	}

	return upsert, nil
}

// ListUnifiedContent lists unified content entries.
func (d *DB) ListUnifiedContent(ctx context.Context, find *store.FindUnifiedContent) ([]*store.UnifiedContent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.SourceType != nil {
		where, args = append(where, "source_type = "+placeholder(len(args)+1)), append(args, string(*find.SourceType))
	}
	if find.SourceID != nil {
		where, args = append(where, "source_id = "+placeholder(len(args)+1)), append(args, *find.SourceID)
	}
	if find.ContentType != nil {
		where, args = append(where, "content_type = "+placeholder(len(args)+1)), append(args, *find.ContentType)
	}
	if find.EmptyTextOnly {
		where = append(where, "(content_text IS NULL OR content_text = '')")
	}

	query := `
		SELECT id, source_type, source_id, content_type, content_text, embedding,
			metadata, user_id, team_id, language, created_ts, updated_ts
		FROM unified_content
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
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
		var contentText, metadata, language *string
		var vector *pgvector.Vector

		if err := rows.Scan(
			&entry.ID, &sourceType, &entry.SourceID, &entry.ContentType,
			&contentText, &vector, &metadata, &entry.UserID, &entry.TeamID,
			&language, &entry.CreatedTs, &entry.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan unified content")
		}

		entry.SourceType = store.SourceType(sourceType)
		if contentText != nil {
			entry.ContentText = *contentText
		}
		if metadata != nil {
			entry.Metadata = *metadata
		}
		if language != nil {
			entry.Language = *language
		}
		if vector != nil {
			entry.Embedding = vector.Slice()
		}
		list = append(list, &entry)
	}

	return list, rows.Err()
}

// DeleteUnifiedContent deletes all entries for a source record.
func (d *DB) DeleteUnifiedContent(ctx context.Context, delete *store.DeleteUnifiedContent) error {
	stmt := `DELETE FROM unified_content WHERE source_type = ` + placeholder(1) + ` AND source_id = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, string(delete.SourceType), delete.SourceID); err != nil {
		return errors.Wrap(err, "failed to delete unified content")
	}
	return nil
}

// SearchUnifiedContent applies the supplied filters and computes the
// semantic score with pgvector for entries that have an embedding.
// Entries without an embedding are kept with a zero semantic score: the
// text signals may still admit them.
func (d *DB) SearchUnifiedContent(ctx context.Context, opts *store.HybridSearchOptions) ([]*store.ContentCandidate, error) {
	where, args := []string{"1 = 1"}, []any{}

	semanticExpr := "0"
	if len(opts.Vector) > 0 {
		args = append(args, pgvector.NewVector(opts.Vector))
		// The <=> operator computes cosine distance (1 - cosine_similarity).
		semanticExpr = "CASE WHEN uc.embedding IS NULL THEN 0 ELSE GREATEST(0, 1 - (uc.embedding <=> " + placeholder(len(args)) + ")) END"
	}

	if len(opts.SourceTypes) > 0 {
		ph := make([]string, 0, len(opts.SourceTypes))
		for _, st := range opts.SourceTypes {
			args = append(args, string(st))
			ph = append(ph, placeholder(len(args)))
		}
		where = append(where, "uc.source_type IN ("+strings.Join(ph, ", ")+")")
	}
	if len(opts.ContentTypes) > 0 {
		ph := make([]string, 0, len(opts.ContentTypes))
		for _, ct := range opts.ContentTypes {
			args = append(args, ct)
			ph = append(ph, placeholder(len(args)))
		}
		where = append(where, "uc.content_type IN ("+strings.Join(ph, ", ")+")")
	}
	if opts.UserID != nil {
		where, args = append(where, "uc.user_id = "+placeholder(len(args)+1)), append(args, *opts.UserID)
	}
	if opts.TeamID != nil {
		where, args = append(where, "uc.team_id = "+placeholder(len(args)+1)), append(args, *opts.TeamID)
	}
	if opts.Language != nil {
		where, args = append(where, "uc.language = "+placeholder(len(args)+1)), append(args, *opts.Language)
	}
	if len(opts.SourceIDs) > 0 {
		ph := make([]string, 0, len(opts.SourceIDs))
		for _, id := range opts.SourceIDs {
			args = append(args, id)
			ph = append(ph, placeholder(len(args)))
		}
		where = append(where, "uc.source_id IN ("+strings.Join(ph, ", ")+")")
	}

	join := ""
	if opts.AmountMin != nil || opts.AmountMax != nil || opts.Currency != nil {
		// Monetary filters only constrain receipt-sourced entries; other
		// source types pass through unconstrained.
		join = " LEFT JOIN receipt r ON uc.source_type = 'receipt' AND uc.source_id = r.id"
		cond := []string{}
		if opts.AmountMin != nil {
			args = append(args, *opts.AmountMin)
			cond = append(cond, "r.total >= "+placeholder(len(args)))
		}
		if opts.AmountMax != nil {
			args = append(args, *opts.AmountMax)
			cond = append(cond, "r.total <= "+placeholder(len(args)))
		}
		if opts.Currency != nil {
			args = append(args, *opts.Currency)
			cond = append(cond, "r.currency = "+placeholder(len(args)))
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
			uc.created_ts, uc.updated_ts,
			` + semanticExpr + ` AS semantic
		FROM unified_content uc` + join + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY semantic DESC, uc.updated_ts DESC
		LIMIT ` + placeholder(len(args))

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
			&c.CreatedTs, &c.UpdatedTs, &c.Semantic,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan search candidate")
		}
		c.SourceType = store.SourceType(sourceType)
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// ContentHealthStats computes the percentage of entries with non-empty
// content per (source type, content type) bucket.
func (d *DB) ContentHealthStats(ctx context.Context) ([]*store.ContentHealthStat, error) {
	query := `
		SELECT source_type, content_type,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE content_text IS NOT NULL AND content_text != '') AS non_empty
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
