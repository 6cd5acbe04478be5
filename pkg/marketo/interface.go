package marketo

import (
	"context"
	"time"
)

// MarketoClient defines the interface for Marketo API operations
type MarketoClient interface {
	// GetLeadBy looks up leads by key type and value
	GetLeadBy(ctx context.Context, keyType, keyValue string) (*LeadLookup, error)

	// SyncLead creates or updates a lead
	SyncLead(ctx context.Context, lead Lead, leadKey, cookie string) (Lead, error)

	// GetCampaigns lists campaigns, optionally filtered by id or name
	GetCampaigns(ctx context.Context, campaign string) (*CampaignsResult, error)

	// ScheduleCampaign schedules a campaign run
	ScheduleCampaign(ctx context.Context, runAt time.Time, campaign, program string, tokens map[string]string) (*ScheduleResult, error)

	// AddToCampaign requests a campaign for one or more leads
	AddToCampaign(ctx context.Context, campaignKey string, leads ...LeadKey) (bool, error)
}

var _ MarketoClient = (*Marketo)(nil)
