package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noa10/mataresit-app-sub001/contentindex"
	"github.com/noa10/mataresit-app-sub001/internal/profile"
	"github.com/noa10/mataresit-app-sub001/pipeline"
	"github.com/noa10/mataresit-app-sub001/store"
	"github.com/noa10/mataresit-app-sub001/store/db"
)

const version = "0.24.0"

var rootCmd = &cobra.Command{
	Use:     "mataresit",
	Short:   "Receipt retrieval core: embedding pipeline metrics and hybrid search index maintenance",
	Version: version,
}

func init() {
	viper.SetEnvPrefix("mataresit")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the service, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("driver", "postgres", `database driver, can be "postgres" or "sqlite"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("embedding-model", "gemini-embedding-001", "embedding model identifier recorded on attempts")
	rootCmd.PersistentFlags().Int("embedding-dimensions", 1536, "dimensionality of stored embedding vectors")
	rootCmd.PersistentFlags().Float64("token-price-per-1k", 0.00013, "estimated API cost per 1000 tokens")

	for _, flag := range []string{"mode", "driver", "dsn", "embedding-model", "embedding-dimensions", "token-price-per-1k"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newAggregateHourlyCmd(),
		newAggregateDailyCmd(),
		newCleanupCmd(),
		newMigrateContentCmd(),
		newRepairContentCmd(),
		newContentHealthCmd(),
	)
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                  viper.GetString("mode"),
		Driver:                viper.GetString("driver"),
		DSN:                   viper.GetString("dsn"),
		Version:               version,
		EmbeddingModel:        viper.GetString("embedding-model"),
		EmbeddingDimensions:   viper.GetInt("embedding-dimensions"),
		TokenPricePerThousand: viper.GetFloat64("token-price-per-1k"),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func openStore() (*store.Store, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, err
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	return store.New(driver, p), nil
}

// withStore runs fn against an opened store and closes it afterwards.
func withStore(fn func(ctx context.Context, s *store.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("failed to close store", slog.Any("error", err))
		}
	}()
	return fn(context.Background(), s)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Initialize the database schema when it is not set up yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s *store.Store) error {
				return s.Migrate(ctx)
			})
		},
	}
}

func newAggregateHourlyCmd() *cobra.Command {
	var bucketFlag string
	cmd := &cobra.Command{
		Use:   "aggregate-hourly",
		Short: "Compute hourly embedding metric rollups for one hour bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := resolveBucket(bucketFlag, time.Hour)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, s *store.Store) error {
				aggregator := pipeline.NewAggregator(s, viper.GetFloat64("token-price-per-1k"))
				return aggregator.AggregateHourly(ctx, bucket)
			})
		},
	}
	cmd.Flags().StringVar(&bucketFlag, "bucket", "", "hour bucket in RFC 3339, defaults to the previous full hour")
	return cmd
}

func newAggregateDailyCmd() *cobra.Command {
	var bucketFlag string
	cmd := &cobra.Command{
		Use:   "aggregate-daily",
		Short: "Compute daily embedding metric rollups for one day bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, err := resolveBucket(bucketFlag, 24*time.Hour)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, s *store.Store) error {
				aggregator := pipeline.NewAggregator(s, viper.GetFloat64("token-price-per-1k"))
				return aggregator.AggregateDaily(ctx, bucket)
			})
		},
	}
	cmd.Flags().StringVar(&bucketFlag, "bucket", "", "day bucket in RFC 3339, defaults to the previous full day")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete attempts and rollups past their retention windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s *store.Store) error {
				aggregator := pipeline.NewAggregator(s, viper.GetFloat64("token-price-per-1k"))
				return aggregator.Cleanup(ctx, time.Now().UTC())
			})
		},
	}
}

func newMigrateContentCmd() *cobra.Command {
	var ratePerSecond float64
	cmd := &cobra.Command{
		Use:   "migrate-content",
		Short: "Backfill unified content entries from legacy receipt embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s *store.Store) error {
				migrator := contentindex.NewMigrator(s, ratePerSecond)
				result, err := migrator.Backfill(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("migrated %d entries, skipped %d receipts\n", result.Migrated, result.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&ratePerSecond, "rate", 20, "maximum upserts per second")
	return cmd
}

func newRepairContentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair-content",
		Short: "Reconstruct unified content entries with missing text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s *store.Store) error {
				result, err := contentindex.NewRepairer(s).Repair(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("repaired %d entries, skipped %d\n", result.Repaired, result.Skipped)
				return nil
			})
		},
	}
}

func newContentHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "content-health",
		Short: "Report unified content completeness per source and content type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s *store.Store) error {
				stats, err := contentindex.Health(ctx, s)
				if err != nil {
					return err
				}
				for _, stat := range stats {
					fmt.Printf("%-16s %-20s %6d/%-6d %6.1f%%\n",
						stat.SourceType, stat.ContentType, stat.NonEmpty, stat.Total, stat.NonEmptyPct)
				}
				return nil
			})
		},
	}
}

// resolveBucket parses an explicit bucket or falls back to the previous
// full window. Buckets are always passed explicitly to the aggregator so
// reruns of the same window stay reproducible.
func resolveBucket(flag string, window time.Duration) (time.Time, error) {
	if flag == "" {
		return time.Now().UTC().Add(-window).Truncate(window), nil
	}
	bucket, err := time.Parse(time.RFC3339, flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bucket %q: %w", flag, err)
	}
	return bucket.UTC().Truncate(window), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
