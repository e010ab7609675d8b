package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxtrack/internal/service"
	"taxtrack/internal/syncer"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// syncwatch keeps a local cache of one month's tax records in step with the
// API: it registers the month's detail, list and summary groups with a sync
// coordinator and feeds server push events into it, logging each refresh.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		apiURL string
		wsURL  string
		token  string
		year   int
		month  int
		build  string
	)

	cmd := &cobra.Command{
		Use:   "syncwatch",
		Short: "Mirror one month of tax records from the tracker API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using environment variables")
			}
			if apiURL == "" {
				apiURL = envOr("TAXTRACK_API_URL", "http://localhost:8080")
			}
			if wsURL == "" {
				wsURL = envOr("TAXTRACK_WS_URL", "ws://localhost:8080/ws")
			}
			if token == "" {
				token = os.Getenv("TAXTRACK_TOKEN")
			}
			if token == "" {
				return fmt.Errorf("an access token is required (--token or TAXTRACK_TOKEN)")
			}
			if year == 0 || month == 0 {
				now := time.Now()
				year, month = now.Year(), int(now.Month())
			}
			return run(cmd.Context(), apiURL, wsURL, token, year, month, build)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "", "API base URL (default TAXTRACK_API_URL)")
	cmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL (default TAXTRACK_WS_URL)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (default TAXTRACK_TOKEN)")
	cmd.Flags().IntVar(&year, "year", 0, "tax year to watch (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "tax month to watch (default: current)")
	cmd.Flags().StringVar(&build, "build", "", "restrict the list group to one company")

	return cmd
}

func run(ctx context.Context, apiURL, wsURL, token string, year, month int, build string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := syncer.NewClient(apiURL, token)
	coordinator := syncer.New(syncer.Config{
		Fetcher: client,
		Updater: client,
		Lists: []syncer.ListGroupSpec{
			{
				ID: fmt.Sprintf("month-%d-%02d", year, month),
				Filter: service.ListTaxRecordsFilter{
					Build:    build,
					TaxYear:  year,
					TaxMonth: month,
				},
			},
		},
		Summaries: []syncer.SummaryGroupSpec{
			{
				ID:       fmt.Sprintf("summary-%d-%02d", year, month),
				TaxYear:  year,
				TaxMonth: month,
			},
		},
		BaseCtx: ctx,
	})

	log.Printf("syncwatch: watching %d-%02d via %s", year, month, apiURL)
	feed := syncer.NewFeed(wsURL, token, coordinator)
	if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Println("syncwatch: shutting down")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
