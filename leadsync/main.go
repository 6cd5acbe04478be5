package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natserract/mktows/leadsync/schema/postgres"
	"github.com/natserract/mktows/leadsync/services"
	"github.com/natserract/mktows/pkg/config"
	"github.com/natserract/mktows/pkg/marketo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var keyType string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "leadsync [key...]",
		Short: "Snapshot Marketo leads into Postgres",
		Long: `Looks up every lead key with getLead and stores the matching leads in
the lead_snapshots table. Keys are read from stdin, one per line, when none
are given as arguments.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args
			if len(keys) == 0 {
				var err error
				keys, err = readKeys(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read lead keys: %w", err)
				}
			}
			if len(keys) == 0 {
				return fmt.Errorf("no lead keys given")
			}
			return run(cmd.Context(), cmd.OutOrStdout(), keyType, concurrency, keys)
		},
	}

	cmd.Flags().StringVar(&keyType, "key-type", string(marketo.KeyEmail), "lead key type used for every lookup")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "maximum concurrent lookups")
	return cmd
}

func run(ctx context.Context, out io.Writer, keyType string, concurrency int, keys []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.New(postgres.NewConfig(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx, postgres.Schema); err != nil {
		logger.Error("Failed to initialize schema", zap.Error(err))
		return err
	}

	// Create Marketo client
	client, err := marketo.NewMarketoWithLogger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create Marketo client", zap.Error(err))
		return fmt.Errorf("failed to create Marketo client: %w", err)
	}

	syncSvc := services.NewSyncService(client, db, logger).WithConcurrency(concurrency)

	metrics, err := syncSvc.SyncLeads(ctx, keyType, keys)
	if err != nil {
		logger.Error("Failed to sync leads", zap.Error(err))
		return err
	}

	fmt.Fprintf(out, "Sync Metrics:\n")
	fmt.Fprintf(out, "  Leads: %d found, %d not found, %d failed\n", metrics.LeadsFound, metrics.LeadsNotFound, metrics.LeadsFailed)
	fmt.Fprintf(out, "  Snapshots: %d saved, %d failed\n", metrics.SnapshotsSaved, metrics.SnapshotsFailed)
	fmt.Fprintf(out, "  Total keys: %d\n", metrics.TotalProcessed())
	return nil
}

// readKeys reads one key per line, skipping blanks and # comments
func readKeys(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
