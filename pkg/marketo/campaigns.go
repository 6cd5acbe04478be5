package marketo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// GetCampaigns lists campaigns available to the API. An empty campaign lists
// all of them; a numeric one filters by id, anything else by name.
func (m *Marketo) GetCampaigns(ctx context.Context, campaign string) (*CampaignsResult, error) {
	m.logger.Info("Getting campaigns", zap.String("campaign", campaign))

	id, ok, err := parseNumeric(campaign)
	if err != nil {
		return nil, fmt.Errorf("get campaigns: %w", err)
	}

	req := ParamsGetCampaignsForSource{NS: Namespace, Source: Source}
	if ok {
		req.CampaignID = &id
	} else {
		name := campaign
		req.Name = &name
	}

	var resp SuccessGetCampaignsForSource
	if err := m.call(ctx, "getCampaignsForSource", req, &resp); err != nil {
		m.logger.Error("Get campaigns failed", zap.Error(err), zap.String("campaign", campaign))
		return nil, fmt.Errorf("get campaigns failed: %w", err)
	}

	m.logger.Info("Successfully retrieved campaigns",
		zap.Int("return_count", resp.Result.ReturnCount),
		zap.Int("items_count", len(resp.Result.Campaigns)))

	return &resp.Result, nil
}

// ScheduleCampaign schedules campaign of program to run at runAt. A zero runAt
// runs it as soon as possible. tokens override program tokens, e.g.
// "{{my.Message}}".
func (m *Marketo) ScheduleCampaign(ctx context.Context, runAt time.Time, campaign, program string, tokens map[string]string) (*ScheduleResult, error) {
	m.logger.Info("Scheduling campaign",
		zap.String("campaign", campaign),
		zap.String("program", program),
		zap.Time("run_at", runAt),
		zap.Int("tokens", len(tokens)))

	req := ParamsScheduleCampaign{
		NS:           Namespace,
		Source:       Source,
		ProgramName:  program,
		CampaignName: campaign,
	}
	if !runAt.IsZero() {
		req.CampaignRunAt = runAt.Format(timestampLayout)
	}
	if len(tokens) > 0 {
		req.TokenList = &ProgramTokenList{Tokens: programTokens(tokens)}
	}

	var resp SuccessScheduleCampaign
	if err := m.call(ctx, "scheduleCampaign", req, &resp); err != nil {
		m.logger.Error("Schedule campaign failed",
			zap.Error(err),
			zap.String("campaign", campaign),
			zap.String("program", program))
		return nil, fmt.Errorf("schedule campaign failed: %w", err)
	}

	m.logger.Info("Scheduled campaign",
		zap.String("campaign", campaign),
		zap.Bool("success", resp.Result.Success))

	return &resp.Result, nil
}

func programTokens(tokens map[string]string) []ProgramToken {
	list := make([]ProgramToken, 0, len(tokens))
	for name, value := range tokens {
		list = append(list, ProgramToken{Name: name, Value: value})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// AddToCampaign requests campaignKey for each lead. A numeric campaignKey is a
// campaign id, anything else a campaign name. Key types are upper-cased.
// The returned flag is the server's success value.
func (m *Marketo) AddToCampaign(ctx context.Context, campaignKey string, leads ...LeadKey) (bool, error) {
	if len(leads) == 0 {
		return false, fmt.Errorf("add to campaign: at least one lead is required")
	}

	id, ok, err := parseNumeric(campaignKey)
	if err != nil {
		return false, fmt.Errorf("add to campaign: %w", err)
	}

	req := ParamsRequestCampaign{
		NS:       Namespace,
		Source:   Source,
		LeadList: buildLeadKeys(leads),
	}
	if ok {
		req.CampaignID = &id
	} else {
		req.CampaignName = campaignKey
	}

	m.logger.Info("Requesting campaign",
		zap.String("campaign", campaignKey),
		zap.Int("leads", len(req.LeadList)))

	var resp SuccessRequestCampaign
	if err := m.call(ctx, "requestCampaign", req, &resp); err != nil {
		m.logger.Error("Request campaign failed", zap.Error(err), zap.String("campaign", campaignKey))
		return false, fmt.Errorf("request campaign failed: %w", err)
	}

	m.logger.Info("Requested campaign",
		zap.String("campaign", campaignKey),
		zap.Bool("success", resp.Result.Success))

	return resp.Result.Success, nil
}

func buildLeadKeys(leads []LeadKey) []LeadKey {
	keys := make([]LeadKey, 0, len(leads))
	for _, lead := range leads {
		keys = append(keys, LeadKey{
			KeyType:  normalizeKeyType(string(lead.KeyType)),
			KeyValue: lead.KeyValue,
		})
	}
	return keys
}
