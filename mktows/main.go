// mktows is a command-line client for the Marketo SOAP API. Credentials come
// from MKTOWS_USER_ID, MKTOWS_ENCRYPTION_KEY and MKTOWS_API_HOST, or a .env
// file in the working directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/natserract/mktows/pkg/config"
	"github.com/natserract/mktows/pkg/marketo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// clientFactory builds the client used by every subcommand
type clientFactory func(ctx context.Context, logger *zap.Logger) (marketo.MarketoClient, error)

func main() {
	if err := newRootCmd(newMarketoClient).Execute(); err != nil {
		os.Exit(1)
	}
}

func newMarketoClient(ctx context.Context, logger *zap.Logger) (marketo.MarketoClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return marketo.NewMarketoWithLogger(ctx, cfg, logger)
}

// app carries state shared by the subcommands
type app struct {
	factory clientFactory
	verbose bool
	logger  *zap.Logger
	client  marketo.MarketoClient
}

// newRootCmd creates the root command. Tests pass their own factory.
func newRootCmd(factory clientFactory) *cobra.Command {
	a := &app{factory: factory}

	cmd := &cobra.Command{
		Use:          "mktows",
		Short:        "Marketo SOAP API client",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(
		newGetLeadCmd(a),
		newSyncLeadCmd(a),
		newCampaignsCmd(a),
		newScheduleCmd(a),
		newRequestCampaignCmd(a),
	)
	return cmd
}

// connect builds the client on first use so help and completion work
// without credentials
func (a *app) connect(cmd *cobra.Command) (marketo.MarketoClient, error) {
	if a.client != nil {
		return a.client, nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a.logger = zap.NewNop()
	if a.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}

	client, err := a.factory(ctx, a.logger)
	if err != nil {
		a.logger.Error("Failed to create Marketo client", zap.Error(err))
		return nil, err
	}
	a.client = client
	return client, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
