package store

import (
	"context"
	"time"
)

// HourlyStat is the hourly rollup of embedding attempts for a team.
// Keyed by (hour bucket, team); recomputing the same bucket converges
// because the upsert is a full overwrite of the aggregate columns.
type HourlyStat struct {
	ID         int64
	HourBucket time.Time
	TeamID     string

	TotalAttempts int64
	SuccessCount  int64
	FailedCount   int64
	TimeoutCount  int64

	SingleCount int64
	BatchCount  int64

	AvgDurationMs int64
	P95DurationMs int64

	APICalls         int64
	APITokens        int64
	RateLimitedCount int64

	ErrorsByType string // JSON: {"error_type": count}
}

// DailyStat is the daily rollup of embedding attempts for a team.
type DailyStat struct {
	ID        int64
	DayBucket time.Time
	TeamID    string

	TotalAttempts int64
	SuccessCount  int64
	FailedCount   int64
	TimeoutCount  int64

	SingleCount int64
	BatchCount  int64

	AvgDurationMs int64
	P95DurationMs int64
	P99DurationMs int64

	APICalls         int64
	APITokens        int64
	RateLimitedCount int64

	ErrorsByType string // JSON: {"error_type": count}

	SuccessRatePct      float64
	EstimatedCost       float64
	SyntheticContentPct float64
	AvgContentTypes     float64
}

// UpsertHourlyStat specifies the data for upserting an hourly rollup.
type UpsertHourlyStat struct {
	HourBucket time.Time
	TeamID     string

	TotalAttempts int64
	SuccessCount  int64
	FailedCount   int64
	TimeoutCount  int64

	SingleCount int64
	BatchCount  int64

	AvgDurationMs int64
	P95DurationMs int64

	APICalls         int64
	APITokens        int64
	RateLimitedCount int64

	ErrorsByType string
}

// UpsertDailyStat specifies the data for upserting a daily rollup.
type UpsertDailyStat struct {
	DayBucket time.Time
	TeamID    string

	TotalAttempts int64
	SuccessCount  int64
	FailedCount   int64
	TimeoutCount  int64

	SingleCount int64
	BatchCount  int64

	AvgDurationMs int64
	P95DurationMs int64
	P99DurationMs int64

	APICalls         int64
	APITokens        int64
	RateLimitedCount int64

	ErrorsByType string

	SuccessRatePct      float64
	EstimatedCost       float64
	SyntheticContentPct float64
	AvgContentTypes     float64
}

// FindHourlyStat specifies the conditions for finding hourly rollups.
type FindHourlyStat struct {
	TeamID    *string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// FindDailyStat specifies the conditions for finding daily rollups.
type FindDailyStat struct {
	TeamID    *string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// DeleteHourlyStats specifies the retention cutoff for hourly rollups.
type DeleteHourlyStats struct {
	BeforeTime *time.Time
}

// DeleteDailyStats specifies the retention cutoff for daily rollups.
type DeleteDailyStats struct {
	BeforeTime *time.Time
}

func (s *Store) UpsertHourlyStat(ctx context.Context, upsert *UpsertHourlyStat) (*HourlyStat, error) {
	return s.driver.UpsertHourlyStat(ctx, upsert)
}

func (s *Store) ListHourlyStats(ctx context.Context, find *FindHourlyStat) ([]*HourlyStat, error) {
	return s.driver.ListHourlyStats(ctx, find)
}

func (s *Store) DeleteHourlyStats(ctx context.Context, delete *DeleteHourlyStats) error {
	return s.driver.DeleteHourlyStats(ctx, delete)
}

func (s *Store) UpsertDailyStat(ctx context.Context, upsert *UpsertDailyStat) (*DailyStat, error) {
	return s.driver.UpsertDailyStat(ctx, upsert)
}

func (s *Store) ListDailyStats(ctx context.Context, find *FindDailyStat) ([]*DailyStat, error) {
	return s.driver.ListDailyStats(ctx, find)
}

func (s *Store) DeleteDailyStats(ctx context.Context, delete *DeleteDailyStats) error {
	return s.driver.DeleteDailyStats(ctx, delete)
}
