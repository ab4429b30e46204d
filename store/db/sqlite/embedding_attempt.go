package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// CreateEmbeddingAttempt inserts a new attempt row.
func (d *DB) CreateEmbeddingAttempt(ctx context.Context, create *store.EmbeddingAttempt) (*store.EmbeddingAttempt, error) {
	stmt := `
		INSERT INTO embedding_attempt (
			id, receipt_id, user_id, team_id, upload_context, model,
			start_ts, status, retry_count, content_types,
			total_content_types, content_length, created_ts
		)
		VALUES (` + placeholders(13) + `)
	`

	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.ReceiptID,
		create.UserID,
		create.TeamID,
		string(create.UploadContext),
		create.Model,
		create.StartTime.UnixMilli(),
		string(create.Status),
		create.RetryCount,
		strings.Join(create.ContentTypesProcessed, ","),
		create.TotalContentTypes,
		create.ContentLength,
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create embedding attempt")
	}

	return create, nil
}

// CompleteEmbeddingAttempt applies the completion update; last write wins.
func (d *DB) CompleteEmbeddingAttempt(ctx context.Context, complete *store.CompleteEmbeddingAttempt) (*store.EmbeddingAttempt, error) {
	endMs := complete.EndTime.UnixMilli()
	set := []string{"end_ts = ?", "status = ?", "duration_ms = ? - start_ts"}
	args := []any{endMs, string(complete.Status), endMs}

	appendSet := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if complete.ErrorType != nil {
		appendSet("error_type", string(*complete.ErrorType))
	}
	if complete.ErrorMessage != nil {
		appendSet("error_message", *complete.ErrorMessage)
	}
	if complete.SuccessfulContentTypes != nil {
		appendSet("successful_content_types", *complete.SuccessfulContentTypes)
	}
	if complete.FailedContentTypes != nil {
		appendSet("failed_content_types", *complete.FailedContentTypes)
	}
	if complete.APICallsMade != nil {
		appendSet("api_calls", *complete.APICallsMade)
	}
	if complete.APITokensUsed != nil {
		appendSet("api_tokens", *complete.APITokensUsed)
	}
	if complete.RateLimited != nil {
		appendSet("rate_limited", *complete.RateLimited)
	}
	if complete.EmbeddingDimensions != nil {
		appendSet("embedding_dimensions", *complete.EmbeddingDimensions)
	}
	if complete.ContentLength != nil {
		appendSet("content_length", *complete.ContentLength)
	}
	if complete.SyntheticContentUsed != nil {
		appendSet("synthetic_content_used", *complete.SyntheticContentUsed)
	}

	args = append(args, complete.ID)
	stmt := `UPDATE embedding_attempt SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to complete embedding attempt")
	}

	list, err := d.ListEmbeddingAttempts(ctx, &store.FindEmbeddingAttempt{ID: &complete.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("embedding attempt %s not found", complete.ID)
	}
	return list[0], nil
}

// ListEmbeddingAttempts lists embedding attempts.
func (d *DB) ListEmbeddingAttempts(ctx context.Context, find *store.FindEmbeddingAttempt) ([]*store.EmbeddingAttempt, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.TeamID != nil {
		where, args = append(where, "team_id = ?"), append(args, *find.TeamID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, string(*find.Status))
	}
	if find.StartTimeGTE != nil {
		where, args = append(where, "start_ts >= ?"), append(args, find.StartTimeGTE.UnixMilli())
	}
	if find.StartTimeLT != nil {
		where, args = append(where, "start_ts < ?"), append(args, find.StartTimeLT.UnixMilli())
	}

	query := `
		SELECT id, receipt_id, user_id, team_id, upload_context, model,
			start_ts, end_ts, duration_ms, status, retry_count,
			error_type, error_message, content_types,
			total_content_types, successful_content_types, failed_content_types,
			api_calls, api_tokens, rate_limited,
			embedding_dimensions, content_length, synthetic_content_used, created_ts
		FROM embedding_attempt
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_ts ASC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT ?"
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list embedding attempts")
	}
	defer rows.Close()

	list := []*store.EmbeddingAttempt{}
	for rows.Next() {
		var attempt store.EmbeddingAttempt
		var uploadContext, status, errorType, contentTypes string
		var startMs, endMs int64

		if err := rows.Scan(
			&attempt.ID, &attempt.ReceiptID, &attempt.UserID, &attempt.TeamID,
			&uploadContext, &attempt.Model, &startMs, &endMs, &attempt.DurationMs,
			&status, &attempt.RetryCount, &errorType, &attempt.ErrorMessage,
			&contentTypes, &attempt.TotalContentTypes, &attempt.SuccessfulContentTypes,
			&attempt.FailedContentTypes, &attempt.APICallsMade, &attempt.APITokensUsed,
			&attempt.RateLimited, &attempt.EmbeddingDimensions, &attempt.ContentLength,
			&attempt.SyntheticContentUsed, &attempt.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan embedding attempt")
		}

		attempt.UploadContext = store.UploadContext(uploadContext)
		attempt.Status = store.AttemptStatus(status)
		attempt.ErrorType = store.AttemptErrorType(errorType)
		attempt.StartTime = time.UnixMilli(startMs).UTC()
		if endMs > 0 {
			attempt.EndTime = time.UnixMilli(endMs).UTC()
		}
		if contentTypes != "" {
			attempt.ContentTypesProcessed = strings.Split(contentTypes, ",")
		}
		list = append(list, &attempt)
	}

	return list, rows.Err()
}

// DeleteEmbeddingAttempts deletes attempts started before the cutoff.
func (d *DB) DeleteEmbeddingAttempts(ctx context.Context, delete *store.DeleteEmbeddingAttempts) error {
	if delete.BeforeTime == nil {
		return errors.New("before_time is required for deletion")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM embedding_attempt WHERE start_ts < ?`, delete.BeforeTime.UnixMilli()); err != nil {
		return errors.Wrap(err, "failed to delete embedding attempts")
	}
	return nil
}
