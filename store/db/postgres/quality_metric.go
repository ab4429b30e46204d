package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// UpsertReceiptQualityMetric upserts the per-receipt quality record.
// Keyed by receipt; a re-generation overwrites the previous metric.
func (d *DB) UpsertReceiptQualityMetric(ctx context.Context, upsert *store.UpsertReceiptQualityMetric) (*store.ReceiptQualityMetric, error) {
	stmt := `
		INSERT INTO receipt_quality_metric (
			receipt_id, user_id, team_id, total_content_types,
			successful_embeddings, failed_embeddings, synthetic_content_used,
			overall_quality_score, processing_method, content_quality_scores, updated_ts
		)
		VALUES (` + placeholders(11) + `)
		ON CONFLICT (receipt_id) DO UPDATE SET
			total_content_types = EXCLUDED.total_content_types,
			successful_embeddings = EXCLUDED.successful_embeddings,
			failed_embeddings = EXCLUDED.failed_embeddings,
			synthetic_content_used = EXCLUDED.synthetic_content_used,
			overall_quality_score = EXCLUDED.overall_quality_score,
			processing_method = EXCLUDED.processing_method,
			content_quality_scores = EXCLUDED.content_quality_scores,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id
	`

	metric := &store.ReceiptQualityMetric{
		ReceiptID:            upsert.ReceiptID,
		UserID:               upsert.UserID,
		TeamID:               upsert.TeamID,
		TotalContentTypes:    upsert.TotalContentTypes,
		SuccessfulEmbeddings: upsert.SuccessfulEmbeddings,
		FailedEmbeddings:     upsert.FailedEmbeddings,
		SyntheticContentUsed: upsert.SyntheticContentUsed,
		OverallQualityScore:  upsert.OverallQualityScore,
		ProcessingMethod:     upsert.ProcessingMethod,
		ContentQualityScores: upsert.ContentQualityScores,
		UpdatedTs:            upsert.UpdatedTs,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.ReceiptID, upsert.UserID, upsert.TeamID, upsert.TotalContentTypes,
		upsert.SuccessfulEmbeddings, upsert.FailedEmbeddings, upsert.SyntheticContentUsed,
		upsert.OverallQualityScore, string(upsert.ProcessingMethod),
		upsert.ContentQualityScores, upsert.UpdatedTs,
	).Scan(&metric.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert receipt quality metric")
	}

	return metric, nil
}

// ListReceiptQualityMetrics lists quality metrics.
func (d *DB) ListReceiptQualityMetrics(ctx context.Context, find *store.FindReceiptQualityMetric) ([]*store.ReceiptQualityMetric, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.UpdatedAfter != nil {
		where, args = append(where, "updated_ts >= "+placeholder(len(args)+1)), append(args, find.UpdatedAfter.Unix())
	}
	if find.MaxScore != nil {
		where, args = append(where, "overall_quality_score < "+placeholder(len(args)+1)), append(args, *find.MaxScore)
	}

	order := "updated_ts DESC"
	if find.OrderByScoreAsc {
		order = "overall_quality_score ASC, updated_ts DESC"
	}

	query := `
		SELECT id, receipt_id, user_id, team_id, total_content_types,
			successful_embeddings, failed_embeddings, synthetic_content_used,
			overall_quality_score, processing_method, content_quality_scores, updated_ts
		FROM receipt_quality_metric
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list receipt quality metrics")
	}
	defer rows.Close()

	list := []*store.ReceiptQualityMetric{}
	for rows.Next() {
		var m store.ReceiptQualityMetric
		var method string
		if err := rows.Scan(
			&m.ID, &m.ReceiptID, &m.UserID, &m.TeamID, &m.TotalContentTypes,
			&m.SuccessfulEmbeddings, &m.FailedEmbeddings, &m.SyntheticContentUsed,
			&m.OverallQualityScore, &method, &m.ContentQualityScores, &m.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan receipt quality metric")
		}
		m.ProcessingMethod = store.ProcessingMethod(method)
		list = append(list, &m)
	}

	return list, rows.Err()
}
