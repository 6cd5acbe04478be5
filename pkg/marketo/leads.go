package marketo

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GetLeadBy looks up leads by key. keyType is case-insensitive ("email", "idnum", ...).
// A "no lead found" fault, or a reply without records, yields a
// LookupNotFound result and a nil error.
func (m *Marketo) GetLeadBy(ctx context.Context, keyType, keyValue string) (*LeadLookup, error) {
	key := LeadKey{KeyType: normalizeKeyType(keyType), KeyValue: keyValue}
	m.logger.Info("Getting lead", zap.String("key_type", string(key.KeyType)))

	var resp SuccessGetLead
	err := m.call(ctx, "getLead", ParamsGetLead{NS: Namespace, LeadKey: key}, &resp)
	if err != nil {
		if isLeadNotFound(err) {
			m.logger.Info("No lead found", zap.String("key_type", string(key.KeyType)))
			return &LeadLookup{Status: LookupNotFound}, nil
		}
		m.logger.Error("Get lead failed", zap.Error(err), zap.String("key_type", string(key.KeyType)))
		return nil, fmt.Errorf("get lead failed: %w", err)
	}

	leads := make([]Lead, 0, len(resp.Result.LeadRecords))
	for _, record := range resp.Result.LeadRecords {
		lead, err := FlattenAttributes(record.Attributes)
		if err != nil {
			m.logger.Error("Failed to flatten lead", zap.Error(err))
			return nil, fmt.Errorf("failed to flatten lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if len(leads) == 0 {
		m.logger.Info("No lead found",
			zap.String("key_type", string(key.KeyType)),
			zap.Int("count", resp.Result.Count))
		return &LeadLookup{Status: LookupNotFound}, nil
	}

	m.logger.Info("Successfully retrieved leads",
		zap.String("key_type", string(key.KeyType)),
		zap.Int("count", len(leads)))

	return &LeadLookup{Status: LookupFound, Leads: leads}, nil
}

// SyncLead creates or updates a lead and returns it as stored by Marketo.
// A numeric leadKey identifies the lead by id, any other non-empty leadKey by
// email, and an empty one creates a new lead. cookie is the optional
// _mkto_trk tracking cookie to associate.
func (m *Marketo) SyncLead(ctx context.Context, lead Lead, leadKey, cookie string) (Lead, error) {
	record, err := buildLeadRecord(lead, leadKey)
	if err != nil {
		return nil, fmt.Errorf("sync lead: %w", err)
	}
	m.logger.Info("Syncing lead",
		zap.Bool("by_id", record.ID != nil),
		zap.Bool("by_email", record.Email != ""),
		zap.Int("attributes", len(record.Attributes)))

	req := ParamsSyncLead{
		NS:            Namespace,
		LeadRecord:    record,
		ReturnLead:    true,
		MarketoCookie: cookie,
	}

	var resp SuccessSyncLead
	if err := m.call(ctx, "syncLead", req, &resp); err != nil {
		m.logger.Error("Sync lead failed", zap.Error(err))
		return nil, fmt.Errorf("sync lead failed: %w", err)
	}

	status := resp.Result.SyncStatus
	if strings.EqualFold(status.Status, "FAILED") {
		m.logger.Error("Sync lead rejected",
			zap.Int64("lead_id", status.LeadID),
			zap.String("error", status.Error))
		return nil, fmt.Errorf("sync lead rejected: %s", status.Error)
	}

	synced, err := FlattenAttributes(resp.Result.LeadRecord.Attributes)
	if err != nil {
		m.logger.Error("Failed to flatten lead", zap.Error(err))
		return nil, fmt.Errorf("failed to flatten lead: %w", err)
	}

	m.logger.Info("Successfully synced lead",
		zap.Int64("lead_id", resp.Result.LeadID),
		zap.String("status", status.Status))

	return synced, nil
}

// buildLeadRecord picks the identifier from leadKey: all digits means id,
// anything else means email. An all-digit email would be sent as an id.
func buildLeadRecord(lead Lead, leadKey string) (LeadRecord, error) {
	record := LeadRecord{Attributes: ToAttributes(lead)}
	if leadKey == "" {
		return record, nil
	}
	id, ok, err := parseNumeric(leadKey)
	if err != nil {
		return LeadRecord{}, fmt.Errorf("lead id: %w", err)
	}
	if ok {
		record.ID = &id
	} else {
		record.Email = leadKey
	}
	return record, nil
}
