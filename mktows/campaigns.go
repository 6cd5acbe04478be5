package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/natserract/mktows/pkg/marketo"
	"github.com/spf13/cobra"
)

func newCampaignsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "campaigns [id-or-name]",
		Short: "List campaigns available to the API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd)
			if err != nil {
				return err
			}
			campaign := ""
			if len(args) == 1 {
				campaign = args[0]
			}
			result, err := client.GetCampaigns(cmd.Context(), campaign)
			if err != nil {
				return fmt.Errorf("failed to get campaigns: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	var program, runAt string
	var tokens map[string]string

	cmd := &cobra.Command{
		Use:   "schedule <campaign>",
		Short: "Schedule a campaign run",
		Long: `Schedules a campaign of a program. --run-at takes an RFC 3339 time; without
it the campaign runs as soon as possible. Tokens are passed as
--token '{{my.Token}}=value'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd)
			if err != nil {
				return err
			}
			var when time.Time
			if runAt != "" {
				t, err := time.Parse(time.RFC3339, runAt)
				if err != nil {
					return fmt.Errorf("invalid --run-at: %w", err)
				}
				when = t
			}

			result, err := client.ScheduleCampaign(cmd.Context(), when, args[0], program, tokens)
			if err != nil {
				return fmt.Errorf("failed to schedule campaign: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&program, "program", "p", "", "program that owns the campaign")
	cmd.Flags().StringVar(&runAt, "run-at", "", "when to run the campaign (RFC 3339)")
	cmd.Flags().StringToStringVar(&tokens, "token", nil, "program token override name=value")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}

func newRequestCampaignCmd(a *app) *cobra.Command {
	var leads []string

	cmd := &cobra.Command{
		Use:   "request-campaign <campaign-id-or-name>",
		Short: "Add leads to a campaign",
		Long: `Requests a campaign for one or more leads. Each --lead is TYPE:VALUE,
for example IDNUM:42 or EMAIL:ada@example.com. A bare value is treated as
an email address.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd)
			if err != nil {
				return err
			}
			keys, err := parseLeadKeys(leads)
			if err != nil {
				return err
			}
			ok, err := client.AddToCampaign(cmd.Context(), args[0], keys...)
			if err != nil {
				return fmt.Errorf("failed to request campaign: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"success": ok})
		},
	}
	cmd.Flags().StringArrayVarP(&leads, "lead", "l", nil, "lead key as TYPE:VALUE (repeatable)")
	return cmd
}

func parseLeadKeys(values []string) ([]marketo.LeadKey, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one --lead is required")
	}
	keys := make([]marketo.LeadKey, 0, len(values))
	for _, v := range values {
		keyType, keyValue, found := strings.Cut(v, ":")
		if !found {
			keyType, keyValue = string(marketo.KeyEmail), v
		}
		keyType = strings.TrimSpace(keyType)
		keyValue = strings.TrimSpace(keyValue)
		if keyType == "" || keyValue == "" {
			return nil, fmt.Errorf("invalid lead key %q", v)
		}
		keys = append(keys, marketo.LeadKey{
			KeyType:  marketo.LeadKeyType(strings.ToUpper(keyType)),
			KeyValue: keyValue,
		})
	}
	return keys, nil
}
