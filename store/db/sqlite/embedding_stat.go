package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// Rollup buckets are stored as unix seconds in SQLite.

// UpsertHourlyStat upserts an hourly rollup with full-overwrite conflict
// semantics so reruns converge.
func (d *DB) UpsertHourlyStat(ctx context.Context, upsert *store.UpsertHourlyStat) (*store.HourlyStat, error) {
	stmt := `
		INSERT INTO embedding_hourly_stat (
			hour_bucket, team_id, total_attempts, success_count, failed_count,
			timeout_count, single_count, batch_count, avg_duration_ms,
			p95_duration_ms, api_calls, api_tokens, rate_limited_count, errors_by_type
		)
		VALUES (` + placeholders(14) + `)
		ON CONFLICT (hour_bucket, team_id) DO UPDATE SET
			total_attempts = EXCLUDED.total_attempts,
			success_count = EXCLUDED.success_count,
			failed_count = EXCLUDED.failed_count,
			timeout_count = EXCLUDED.timeout_count,
			single_count = EXCLUDED.single_count,
			batch_count = EXCLUDED.batch_count,
			avg_duration_ms = EXCLUDED.avg_duration_ms,
			p95_duration_ms = EXCLUDED.p95_duration_ms,
			api_calls = EXCLUDED.api_calls,
			api_tokens = EXCLUDED.api_tokens,
			rate_limited_count = EXCLUDED.rate_limited_count,
			errors_by_type = EXCLUDED.errors_by_type
	`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.HourBucket.Unix(), upsert.TeamID, upsert.TotalAttempts, upsert.SuccessCount,
		upsert.FailedCount, upsert.TimeoutCount, upsert.SingleCount, upsert.BatchCount,
		upsert.AvgDurationMs, upsert.P95DurationMs, upsert.APICalls, upsert.APITokens,
		upsert.RateLimitedCount, upsert.ErrorsByType,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert hourly stat")
	}

	list, err := d.ListHourlyStats(ctx, &store.FindHourlyStat{
		TeamID:    &upsert.TeamID,
		StartTime: &upsert.HourBucket,
		EndTime:   &upsert.HourBucket,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("hourly stat not found after upsert")
	}
	return list[0], nil
}

// ListHourlyStats lists hourly rollups.
func (d *DB) ListHourlyStats(ctx context.Context, find *store.FindHourlyStat) ([]*store.HourlyStat, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.TeamID != nil {
		where, args = append(where, "team_id = ?"), append(args, *find.TeamID)
	}
	if find.StartTime != nil {
		where, args = append(where, "hour_bucket >= ?"), append(args, find.StartTime.Unix())
	}
	if find.EndTime != nil {
		where, args = append(where, "hour_bucket <= ?"), append(args, find.EndTime.Unix())
	}

	query := `
		SELECT id, hour_bucket, team_id, total_attempts, success_count, failed_count,
			timeout_count, single_count, batch_count, avg_duration_ms, p95_duration_ms,
			api_calls, api_tokens, rate_limited_count, errors_by_type
		FROM embedding_hourly_stat
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY hour_bucket DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT ?"
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hourly stats")
	}
	defer rows.Close()

	list := []*store.HourlyStat{}
	for rows.Next() {
		var s store.HourlyStat
		var bucket int64
		if err := rows.Scan(
			&s.ID, &bucket, &s.TeamID, &s.TotalAttempts, &s.SuccessCount,
			&s.FailedCount, &s.TimeoutCount, &s.SingleCount, &s.BatchCount,
			&s.AvgDurationMs, &s.P95DurationMs, &s.APICalls, &s.APITokens,
			&s.RateLimitedCount, &s.ErrorsByType,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan hourly stat")
		}
		s.HourBucket = time.Unix(bucket, 0).UTC()
		list = append(list, &s)
	}

	return list, rows.Err()
}

// DeleteHourlyStats deletes hourly rollups older than the cutoff.
func (d *DB) DeleteHourlyStats(ctx context.Context, delete *store.DeleteHourlyStats) error {
	if delete.BeforeTime == nil {
		return errors.New("before_time is required for deletion")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM embedding_hourly_stat WHERE hour_bucket < ?`, delete.BeforeTime.Unix()); err != nil {
		return errors.Wrap(err, "failed to delete hourly stats")
	}
	return nil
}

// UpsertDailyStat upserts a daily rollup.
func (d *DB) UpsertDailyStat(ctx context.Context, upsert *store.UpsertDailyStat) (*store.DailyStat, error) {
	stmt := `
		INSERT INTO embedding_daily_stat (
			day_bucket, team_id, total_attempts, success_count, failed_count,
			timeout_count, single_count, batch_count, avg_duration_ms,
			p95_duration_ms, p99_duration_ms, api_calls, api_tokens,
			rate_limited_count, errors_by_type, success_rate_pct, estimated_cost,
			synthetic_content_pct, avg_content_types
		)
		VALUES (` + placeholders(19) + `)
		ON CONFLICT (day_bucket, team_id) DO UPDATE SET
			total_attempts = EXCLUDED.total_attempts,
			success_count = EXCLUDED.success_count,
			failed_count = EXCLUDED.failed_count,
			timeout_count = EXCLUDED.timeout_count,
			single_count = EXCLUDED.single_count,
			batch_count = EXCLUDED.batch_count,
			avg_duration_ms = EXCLUDED.avg_duration_ms,
			p95_duration_ms = EXCLUDED.p95_duration_ms,
			p99_duration_ms = EXCLUDED.p99_duration_ms,
			api_calls = EXCLUDED.api_calls,
			api_tokens = EXCLUDED.api_tokens,
			rate_limited_count = EXCLUDED.rate_limited_count,
			errors_by_type = EXCLUDED.errors_by_type,
			success_rate_pct = EXCLUDED.success_rate_pct,
			estimated_cost = EXCLUDED.estimated_cost,
			synthetic_content_pct = EXCLUDED.synthetic_content_pct,
			avg_content_types = EXCLUDED.avg_content_types
	`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.DayBucket.Unix(), upsert.TeamID, upsert.TotalAttempts, upsert.SuccessCount,
		upsert.FailedCount, upsert.TimeoutCount, upsert.SingleCount, upsert.BatchCount,
		upsert.AvgDurationMs, upsert.P95DurationMs, upsert.P99DurationMs,
		upsert.APICalls, upsert.APITokens, upsert.RateLimitedCount, upsert.ErrorsByType,
		upsert.SuccessRatePct, upsert.EstimatedCost, upsert.SyntheticContentPct,
		upsert.AvgContentTypes,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert daily stat")
	}

	list, err := d.ListDailyStats(ctx, &store.FindDailyStat{
		TeamID:    &upsert.TeamID,
		StartTime: &upsert.DayBucket,
		EndTime:   &upsert.DayBucket,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("daily stat not found after upsert")
	}
	return list[0], nil
}

// ListDailyStats lists daily rollups.
func (d *DB) ListDailyStats(ctx context.Context, find *store.FindDailyStat) ([]*store.DailyStat, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.TeamID != nil {
		where, args = append(where, "team_id = ?"), append(args, *find.TeamID)
	}
	if find.StartTime != nil {
		where, args = append(where, "day_bucket >= ?"), append(args, find.StartTime.Unix())
	}
	if find.EndTime != nil {
		where, args = append(where, "day_bucket <= ?"), append(args, find.EndTime.Unix())
	}

	query := `
		SELECT id, day_bucket, team_id, total_attempts, success_count, failed_count,
			timeout_count, single_count, batch_count, avg_duration_ms, p95_duration_ms,
			p99_duration_ms, api_calls, api_tokens, rate_limited_count, errors_by_type,
			success_rate_pct, estimated_cost, synthetic_content_pct, avg_content_types
		FROM embedding_daily_stat
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY day_bucket DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT ?"
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily stats")
	}
	defer rows.Close()

	list := []*store.DailyStat{}
	for rows.Next() {
		var s store.DailyStat
		var bucket int64
		if err := rows.Scan(
			&s.ID, &bucket, &s.TeamID, &s.TotalAttempts, &s.SuccessCount,
			&s.FailedCount, &s.TimeoutCount, &s.SingleCount, &s.BatchCount,
			&s.AvgDurationMs, &s.P95DurationMs, &s.P99DurationMs, &s.APICalls,
			&s.APITokens, &s.RateLimitedCount, &s.ErrorsByType, &s.SuccessRatePct,
			&s.EstimatedCost, &s.SyntheticContentPct, &s.AvgContentTypes,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan daily stat")
		}
		s.DayBucket = time.Unix(bucket, 0).UTC()
		list = append(list, &s)
	}

	return list, rows.Err()
}

// DeleteDailyStats deletes daily rollups older than the cutoff.
func (d *DB) DeleteDailyStats(ctx context.Context, delete *store.DeleteDailyStats) error {
	if delete.BeforeTime == nil {
		return errors.New("before_time is required for deletion")
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM embedding_daily_stat WHERE day_bucket < ?`, delete.BeforeTime.Unix()); err != nil {
		return errors.Wrap(err, "failed to delete daily stats")
	}
	return nil
}
