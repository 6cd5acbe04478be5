package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/natserract/mktows/pkg/marketo"
	"github.com/spf13/cobra"
)

type leadLookupOutput struct {
	Status string         `json:"status"`
	Leads  []marketo.Lead `json:"leads"`
}

func newGetLeadCmd(a *app) *cobra.Command {
	var keyType string

	cmd := &cobra.Command{
		Use:   "get-lead <key-value>",
		Short: "Look up leads by key",
		Long: `Looks up leads matching a key. The key type defaults to EMAIL; other
types include IDNUM, COOKIE, LEADOWNEREMAIL and the SFDC* identifiers.
A lead that does not exist is reported with status not_found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd)
			if err != nil {
				return err
			}
			lookup, err := client.GetLeadBy(cmd.Context(), keyType, args[0])
			if err != nil {
				return fmt.Errorf("failed to get lead: %w", err)
			}
			out := leadLookupOutput{Status: lookup.Status.String(), Leads: lookup.Leads}
			if out.Leads == nil {
				out.Leads = []marketo.Lead{}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&keyType, "key-type", "t", string(marketo.KeyEmail), "lead key type")
	return cmd
}

func newSyncLeadCmd(a *app) *cobra.Command {
	var cookie string
	var leadJSON string

	cmd := &cobra.Command{
		Use:   "sync-lead [id-or-email]",
		Short: "Create or update a lead",
		Long: `Creates or updates a lead from a JSON object of attributes, given with
--lead or on stdin. A numeric key updates the lead with that id, any other
key is treated as an email address. Without a key a new lead is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd)
			if err != nil {
				return err
			}
			var src io.Reader = strings.NewReader(leadJSON)
			if leadJSON == "" {
				src = cmd.InOrStdin()
			}
			lead, err := decodeLead(src)
			if err != nil {
				return err
			}

			key := ""
			if len(args) == 1 {
				key = args[0]
			}

			synced, err := client.SyncLead(cmd.Context(), lead, key, cookie)
			if err != nil {
				return fmt.Errorf("failed to sync lead: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), synced)
		},
	}
	cmd.Flags().StringVar(&leadJSON, "lead", "", "lead attributes as a JSON object")
	cmd.Flags().StringVar(&cookie, "cookie", "", "Munchkin tracking cookie to associate")
	return cmd
}

// decodeLead reads a JSON object into a Lead. Whole numbers become int64 so
// they encode without a fractional part.
func decodeLead(r io.Reader) (marketo.Lead, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode lead: %w", err)
	}

	lead := make(marketo.Lead, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case json.Number:
			if n, err := val.Int64(); err == nil {
				lead[name] = n
				continue
			}
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", name, err)
			}
			lead[name] = f
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("attribute %s: nested values are not supported", name)
		default:
			lead[name] = val
		}
	}
	return lead, nil
}
