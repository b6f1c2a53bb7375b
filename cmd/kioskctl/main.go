// Command kioskctl administers the slideshow data: families, items,
// reminders and per-family slideshow settings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/store"
)

var (
	databaseURL string
	redisURL    string
	formatFlag  string
)

var rootCmd = &cobra.Command{
	Use:           "kioskctl",
	Short:         "Administer family slideshow data",
	Long:          "Seed and inspect families, shared items, reminders and slideshow settings. Writes are announced to running kiosks when a Redis URL is set.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default: $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis URL for change notifications (default: $REDIS_URL, empty disables)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.AutoMigrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	})
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := databaseURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database: set --database-url or DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}

// openStore returns a store and a func releasing its connections.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}

	url := redisURL
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	if url == "" {
		return store.New(pool, nil), pool.Close, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	closeAll := func() {
		_ = rdb.Close()
		pool.Close()
	}
	return store.New(pool, realtime.NewChangeFeed(rdb)), closeAll, nil
}

// emit prints v as JSON when --format json is set; otherwise it calls text.
func emit(w io.Writer, v any, text func(w io.Writer)) error {
	switch formatFlag {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	case "text", "":
		text(w)
		return nil
	default:
		return fmt.Errorf("unknown format %q", formatFlag)
	}
}
