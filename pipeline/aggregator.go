package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/noa10/mataresit-app-sub001/store"
)

// Retention windows for the cleanup pass.
const (
	attemptRetention    = 90 * 24 * time.Hour
	hourlyStatRetention = 30 * 24 * time.Hour
	dailyStatRetention  = 365 * 24 * time.Hour
)

// AggregatorStore is the store dependency of the aggregator.
type AggregatorStore interface {
	ListEmbeddingAttempts(ctx context.Context, find *store.FindEmbeddingAttempt) ([]*store.EmbeddingAttempt, error)
	UpsertHourlyStat(ctx context.Context, upsert *store.UpsertHourlyStat) (*store.HourlyStat, error)
	UpsertDailyStat(ctx context.Context, upsert *store.UpsertDailyStat) (*store.DailyStat, error)
	DeleteEmbeddingAttempts(ctx context.Context, delete *store.DeleteEmbeddingAttempts) error
	DeleteHourlyStats(ctx context.Context, delete *store.DeleteHourlyStats) error
	DeleteDailyStats(ctx context.Context, delete *store.DeleteDailyStats) error
}

// Aggregator computes time-bucketed rollups from recorded attempts.
// It is pull-based and idempotent: the window is an explicit parameter
// supplied by the external scheduler, and re-running a bucket converges
// because the rollup is a pure function of the attempts in the window
// and the upsert overwrites the previous values.
type Aggregator struct {
	store AggregatorStore

	// tokenPrice is the estimated API cost per 1000 tokens, used for
	// the daily cost estimate.
	tokenPrice float64
}

// NewAggregator creates a metrics aggregator.
func NewAggregator(s AggregatorStore, tokenPricePerThousand float64) *Aggregator {
	return &Aggregator{
		store:      s,
		tokenPrice: tokenPricePerThousand,
	}
}

// AggregateHourly recomputes the hourly rollup for every team with
// attempts whose start time falls in [hourBucket, hourBucket+1h).
// Each team's upsert is an independent unit: completed upserts are not
// rolled back when a later one fails.
func (a *Aggregator) AggregateHourly(ctx context.Context, hourBucket time.Time) error {
	runID := shortuuid.New()
	hourBucket = hourBucket.Truncate(time.Hour)
	windowEnd := hourBucket.Add(time.Hour)

	attempts, err := a.store.ListEmbeddingAttempts(ctx, &store.FindEmbeddingAttempt{
		StartTimeGTE: &hourBucket,
		StartTimeLT:  &windowEnd,
	})
	if err != nil {
		return errors.Wrap(err, "failed to list attempts for hourly aggregation")
	}

	byTeam := groupByTeam(attempts)
	g, gctx := errgroup.WithContext(ctx)
	for teamID, teamAttempts := range byTeam {
		upsert := computeHourly(hourBucket, teamID, teamAttempts)
		g.Go(func() error {
			if _, err := a.store.UpsertHourlyStat(gctx, upsert); err != nil {
				return errors.Wrapf(err, "failed to upsert hourly stat for team %s", teamID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("hourly aggregation completed",
		"run_id", runID,
		"hour_bucket", hourBucket,
		"teams", len(byTeam),
		"attempts", len(attempts),
	)
	return nil
}

// AggregateDaily recomputes the daily rollup for every team with
// attempts whose start time falls in [dayBucket, dayBucket+24h).
func (a *Aggregator) AggregateDaily(ctx context.Context, dayBucket time.Time) error {
	runID := shortuuid.New()
	dayBucket = dayBucket.Truncate(24 * time.Hour)
	windowEnd := dayBucket.Add(24 * time.Hour)

	attempts, err := a.store.ListEmbeddingAttempts(ctx, &store.FindEmbeddingAttempt{
		StartTimeGTE: &dayBucket,
		StartTimeLT:  &windowEnd,
	})
	if err != nil {
		return errors.Wrap(err, "failed to list attempts for daily aggregation")
	}

	byTeam := groupByTeam(attempts)
	g, gctx := errgroup.WithContext(ctx)
	for teamID, teamAttempts := range byTeam {
		upsert := computeDaily(dayBucket, teamID, teamAttempts, a.tokenPrice)
		g.Go(func() error {
			if _, err := a.store.UpsertDailyStat(gctx, upsert); err != nil {
				return errors.Wrapf(err, "failed to upsert daily stat for team %s", teamID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("daily aggregation completed",
		"run_id", runID,
		"day_bucket", dayBucket,
		"teams", len(byTeam),
		"attempts", len(attempts),
	)
	return nil
}

// Cleanup deletes attempts older than 90 days, hourly rollups older
// than 30 days and daily rollups older than 1 year. It must be invoked
// on a schedule external to this core and should not overlap an
// aggregation of the same window.
func (a *Aggregator) Cleanup(ctx context.Context, now time.Time) error {
	attemptCutoff := now.Add(-attemptRetention)
	if err := a.store.DeleteEmbeddingAttempts(ctx, &store.DeleteEmbeddingAttempts{BeforeTime: &attemptCutoff}); err != nil {
		return errors.Wrap(err, "failed to clean up attempts")
	}

	hourlyCutoff := now.Add(-hourlyStatRetention)
	if err := a.store.DeleteHourlyStats(ctx, &store.DeleteHourlyStats{BeforeTime: &hourlyCutoff}); err != nil {
		return errors.Wrap(err, "failed to clean up hourly stats")
	}

	dailyCutoff := now.Add(-dailyStatRetention)
	if err := a.store.DeleteDailyStats(ctx, &store.DeleteDailyStats{BeforeTime: &dailyCutoff}); err != nil {
		return errors.Wrap(err, "failed to clean up daily stats")
	}

	slog.Info("retention cleanup completed",
		"attempt_cutoff", attemptCutoff,
		"hourly_cutoff", hourlyCutoff,
		"daily_cutoff", dailyCutoff,
	)
	return nil
}

func groupByTeam(attempts []*store.EmbeddingAttempt) map[string][]*store.EmbeddingAttempt {
	byTeam := make(map[string][]*store.EmbeddingAttempt)
	for _, attempt := range attempts {
		byTeam[attempt.TeamID] = append(byTeam[attempt.TeamID], attempt)
	}
	return byTeam
}

// rollup is the signal accumulation shared by the hourly and daily
// computations.
type rollup struct {
	total, success, failed, timeout int64
	single, batch                   int64
	apiCalls, apiTokens             int64
	rateLimited                     int64
	synthetic                       int64
	contentTypes                    int64
	durations                       []int64
	errorsByType                    map[store.AttemptErrorType]int64
}

func accumulate(attempts []*store.EmbeddingAttempt) rollup {
	r := rollup{
		durations:    make([]int64, 0, len(attempts)),
		errorsByType: make(map[store.AttemptErrorType]int64),
	}
	for _, a := range attempts {
		r.total++
		switch a.Status {
		case store.AttemptStatusSuccess:
			r.success++
		case store.AttemptStatusFailed:
			r.failed++
		case store.AttemptStatusTimeout:
			r.timeout++
		}
		switch a.UploadContext {
		case store.UploadContextSingle:
			r.single++
		case store.UploadContextBatch:
			r.batch++
		}
		r.apiCalls += a.APICallsMade
		r.apiTokens += a.APITokensUsed
		if a.RateLimited {
			r.rateLimited++
		}
		if a.SyntheticContentUsed {
			r.synthetic++
		}
		r.contentTypes += int64(a.TotalContentTypes)
		if a.DurationMs > 0 {
			r.durations = append(r.durations, a.DurationMs)
		}
		if a.ErrorType != "" {
			r.errorsByType[a.ErrorType]++
		}
	}
	return r
}

func (r rollup) errorsJSON() string {
	if len(r.errorsByType) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(r.errorsByType)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// computeHourly is a pure function of the attempts in the window;
// recomputing the same bucket yields identical rollup values.
func computeHourly(hourBucket time.Time, teamID string, attempts []*store.EmbeddingAttempt) *store.UpsertHourlyStat {
	r := accumulate(attempts)
	return &store.UpsertHourlyStat{
		HourBucket:       hourBucket,
		TeamID:           teamID,
		TotalAttempts:    r.total,
		SuccessCount:     r.success,
		FailedCount:      r.failed,
		TimeoutCount:     r.timeout,
		SingleCount:      r.single,
		BatchCount:       r.batch,
		AvgDurationMs:    meanDuration(r.durations),
		P95DurationMs:    percentile(r.durations, 95),
		APICalls:         r.apiCalls,
		APITokens:        r.apiTokens,
		RateLimitedCount: r.rateLimited,
		ErrorsByType:     r.errorsJSON(),
	}
}

// computeDaily extends the hourly shape with p99 duration, success
// rate, estimated cost and content quality ratios.
func computeDaily(dayBucket time.Time, teamID string, attempts []*store.EmbeddingAttempt, tokenPrice float64) *store.UpsertDailyStat {
	r := accumulate(attempts)
	stat := &store.UpsertDailyStat{
		DayBucket:        dayBucket,
		TeamID:           teamID,
		TotalAttempts:    r.total,
		SuccessCount:     r.success,
		FailedCount:      r.failed,
		TimeoutCount:     r.timeout,
		SingleCount:      r.single,
		BatchCount:       r.batch,
		AvgDurationMs:    meanDuration(r.durations),
		P95DurationMs:    percentile(r.durations, 95),
		P99DurationMs:    percentile(r.durations, 99),
		APICalls:         r.apiCalls,
		APITokens:        r.apiTokens,
		RateLimitedCount: r.rateLimited,
		ErrorsByType:     r.errorsJSON(),
		EstimatedCost:    float64(r.apiTokens) / 1000 * tokenPrice,
	}
	if r.total > 0 {
		stat.SuccessRatePct = float64(r.success) / float64(r.total) * 100
		stat.SyntheticContentPct = float64(r.synthetic) / float64(r.total) * 100
		stat.AvgContentTypes = float64(r.contentTypes) / float64(r.total)
	}
	return stat
}

func meanDuration(durations []int64) int64 {
	if len(durations) == 0 {
		return 0
	}
	var sum int64
	for _, d := range durations {
		sum += d
	}
	return sum / int64(len(durations))
}

func percentile(durations []int64, p int) int64 {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]int64, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
