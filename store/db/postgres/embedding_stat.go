package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

// UpsertHourlyStat upserts an hourly rollup. The conflict action is a
// full overwrite of the aggregate columns so that re-running the
// aggregation for the same bucket converges instead of double-counting.
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
		RETURNING id
	`

	stat := &store.HourlyStat{
		HourBucket:       upsert.HourBucket,
		TeamID:           upsert.TeamID,
		TotalAttempts:    upsert.TotalAttempts,
		SuccessCount:     upsert.SuccessCount,
		FailedCount:      upsert.FailedCount,
		TimeoutCount:     upsert.TimeoutCount,
		SingleCount:      upsert.SingleCount,
		BatchCount:       upsert.BatchCount,
		AvgDurationMs:    upsert.AvgDurationMs,
		P95DurationMs:    upsert.P95DurationMs,
		APICalls:         upsert.APICalls,
		APITokens:        upsert.APITokens,
		RateLimitedCount: upsert.RateLimitedCount,
		ErrorsByType:     upsert.ErrorsByType,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.HourBucket, upsert.TeamID, upsert.TotalAttempts, upsert.SuccessCount,
		upsert.FailedCount, upsert.TimeoutCount, upsert.SingleCount, upsert.BatchCount,
		upsert.AvgDurationMs, upsert.P95DurationMs, upsert.APICalls, upsert.APITokens,
		upsert.RateLimitedCount, upsert.ErrorsByType,
	).Scan(&stat.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert hourly stat")
	}

	return stat, nil
}

// ListHourlyStats lists hourly rollups.
func (d *DB) ListHourlyStats(ctx context.Context, find *store.FindHourlyStat) ([]*store.HourlyStat, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.TeamID != nil {
		where, args = append(where, "team_id = "+placeholder(len(args)+1)), append(args, *find.TeamID)
	}
	if find.StartTime != nil {
		where, args = append(where, "hour_bucket >= "+placeholder(len(args)+1)), append(args, *find.StartTime)
	}
	if find.EndTime != nil {
		where, args = append(where, "hour_bucket <= "+placeholder(len(args)+1)), append(args, *find.EndTime)
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
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hourly stats")
	}
	defer rows.Close()

	list := []*store.HourlyStat{}
	for rows.Next() {
		var s store.HourlyStat
		if err := rows.Scan(
			&s.ID, &s.HourBucket, &s.TeamID, &s.TotalAttempts, &s.SuccessCount,
			&s.FailedCount, &s.TimeoutCount, &s.SingleCount, &s.BatchCount,
			&s.AvgDurationMs, &s.P95DurationMs, &s.APICalls, &s.APITokens,
			&s.RateLimitedCount, &s.ErrorsByType,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan hourly stat")
		}
		s.HourBucket = s.HourBucket.UTC()
		list = append(list, &s)
	}

	return list, rows.Err()
}

// DeleteHourlyStats deletes hourly rollups older than the cutoff.
func (d *DB) DeleteHourlyStats(ctx context.Context, delete *store.DeleteHourlyStats) error {
	return d.deleteStatsBefore(ctx, "embedding_hourly_stat", "hour_bucket", delete.BeforeTime)
}

// UpsertDailyStat upserts a daily rollup with the same convergent
// overwrite semantics as the hourly upsert.
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
		RETURNING id
	`

	stat := &store.DailyStat{
		DayBucket:           upsert.DayBucket,
		TeamID:              upsert.TeamID,
		TotalAttempts:       upsert.TotalAttempts,
		SuccessCount:        upsert.SuccessCount,
		FailedCount:         upsert.FailedCount,
		TimeoutCount:        upsert.TimeoutCount,
		SingleCount:         upsert.SingleCount,
		BatchCount:          upsert.BatchCount,
		AvgDurationMs:       upsert.AvgDurationMs,
		P95DurationMs:       upsert.P95DurationMs,
		P99DurationMs:       upsert.P99DurationMs,
		APICalls:            upsert.APICalls,
		APITokens:           upsert.APITokens,
		RateLimitedCount:    upsert.RateLimitedCount,
		ErrorsByType:        upsert.ErrorsByType,
		SuccessRatePct:      upsert.SuccessRatePct,
		EstimatedCost:       upsert.EstimatedCost,
		SyntheticContentPct: upsert.SyntheticContentPct,
		AvgContentTypes:     upsert.AvgContentTypes,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.DayBucket, upsert.TeamID, upsert.TotalAttempts, upsert.SuccessCount,
		upsert.FailedCount, upsert.TimeoutCount, upsert.SingleCount, upsert.BatchCount,
		upsert.AvgDurationMs, upsert.P95DurationMs, upsert.P99DurationMs,
		upsert.APICalls, upsert.APITokens, upsert.RateLimitedCount, upsert.ErrorsByType,
		upsert.SuccessRatePct, upsert.EstimatedCost, upsert.SyntheticContentPct,
		upsert.AvgContentTypes,
	).Scan(&stat.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert daily stat")
	}

	return stat, nil
}

// ListDailyStats lists daily rollups.
func (d *DB) ListDailyStats(ctx context.Context, find *store.FindDailyStat) ([]*store.DailyStat, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.TeamID != nil {
		where, args = append(where, "team_id = "+placeholder(len(args)+1)), append(args, *find.TeamID)
	}
	if find.StartTime != nil {
		where, args = append(where, "day_bucket >= "+placeholder(len(args)+1)), append(args, *find.StartTime)
	}
	if find.EndTime != nil {
		where, args = append(where, "day_bucket <= "+placeholder(len(args)+1)), append(args, *find.EndTime)
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
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily stats")
	}
	defer rows.Close()

	list := []*store.DailyStat{}
	for rows.Next() {
		var s store.DailyStat
		if err := rows.Scan(
			&s.ID, &s.DayBucket, &s.TeamID, &s.TotalAttempts, &s.SuccessCount,
			&s.FailedCount, &s.TimeoutCount, &s.SingleCount, &s.BatchCount,
			&s.AvgDurationMs, &s.P95DurationMs, &s.P99DurationMs, &s.APICalls,
			&s.APITokens, &s.RateLimitedCount, &s.ErrorsByType, &s.SuccessRatePct,
			&s.EstimatedCost, &s.SyntheticContentPct, &s.AvgContentTypes,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan daily stat")
		}
		s.DayBucket = s.DayBucket.UTC()
		list = append(list, &s)
	}

	return list, rows.Err()
}

// DeleteDailyStats deletes daily rollups older than the cutoff.
func (d *DB) DeleteDailyStats(ctx context.Context, delete *store.DeleteDailyStats) error {
	return d.deleteStatsBefore(ctx, "embedding_daily_stat", "day_bucket", delete.BeforeTime)
}

func (d *DB) deleteStatsBefore(ctx context.Context, table, column string, before *time.Time) error {
	if before == nil {
		return errors.New("before_time is required for deletion")
	}
	stmt := `DELETE FROM ` + table + ` WHERE ` + column + ` < ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, *before); err != nil {
		return errors.Wrapf(err, "failed to delete from %s", table)
	}
	return nil
}
