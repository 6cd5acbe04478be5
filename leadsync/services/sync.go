package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/mktows/leadsync/schema/postgres"
	"github.com/natserract/mktows/pkg/marketo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	jobTypeLeadSnapshot = "lead_snapshot"
	defaultConcurrency  = 10
)

// SnapshotStore persists sync jobs and lead snapshots
type SnapshotStore interface {
	CreateSyncJob(ctx context.Context, job postgres.SyncJob) error
	ReplaceSnapshots(ctx context.Context, keyType, keyValue string, snapshots []postgres.LeadSnapshot) error
	CompleteSyncJob(ctx context.Context, result postgres.SyncJobResult) error
}

// SyncMetrics tracks the overall sync operation metrics
type SyncMetrics struct {
	LeadsFound      int
	LeadsNotFound   int
	LeadsFailed     int
	SnapshotsSaved  int
	SnapshotsFailed int
	mu              sync.Mutex
}

// AddFound records a key that matched and how its snapshots fared
func (m *SyncMetrics) AddFound(saved, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LeadsFound++
	m.SnapshotsSaved += saved
	m.SnapshotsFailed += failed
}

// AddNotFound increments the not found count
func (m *SyncMetrics) AddNotFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LeadsNotFound++
}

// AddFailure increments the failed lookup count
func (m *SyncMetrics) AddFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LeadsFailed++
}

// TotalProcessed returns the number of keys looked up
func (m *SyncMetrics) TotalProcessed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LeadsFound + m.LeadsNotFound + m.LeadsFailed
}

// SyncService snapshots Marketo leads into the store with durable tracking
// via sync jobs
type SyncService struct {
	client      marketo.MarketoClient
	store       SnapshotStore
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// NewSyncService creates a new sync service
func NewSyncService(client marketo.MarketoClient, store SnapshotStore, logger *zap.Logger) *SyncService {
	return &SyncService{
		client:      client,
		store:       store,
		logger:      logger,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
}

// WithConcurrency bounds the number of concurrent lookups
func (s *SyncService) WithConcurrency(n int) *SyncService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// SyncLeads looks up every key value and saves the matching leads.
// Individual lookup failures are counted, not returned.
func (s *SyncService) SyncLeads(ctx context.Context, keyType string, keyValues []string) (*SyncMetrics, error) {
	startTime := s.now()
	keyType = strings.ToUpper(strings.TrimSpace(keyType))
	if keyType == "" {
		return nil, fmt.Errorf("key type is required")
	}
	values := uniqueValues(keyValues)

	s.logger.Info("Starting lead sync",
		zap.String("key_type", keyType),
		zap.Int("total_keys", len(values)))

	metrics := &SyncMetrics{}

	// Create sync job for tracking
	jobID := uuid.New()
	err := s.store.CreateSyncJob(ctx, postgres.SyncJob{
		ID:         jobID,
		JobType:    jobTypeLeadSnapshot,
		KeyType:    keyType,
		TotalItems: len(values),
		StartedAt:  startTime,
	})
	if err != nil {
		s.logger.Warn("Failed to create sync job, continuing untracked", zap.Error(err))
		jobID = uuid.Nil
	} else {
		s.logger.Info("Created sync job", zap.String("job_id", jobID.String()))
	}

	lookupPool := pool.New().WithMaxGoroutines(s.concurrency).WithErrors()
	for _, value := range values {
		value := value // capture loop variable
		lookupPool.Go(func() error {
			return s.syncKey(ctx, jobID, keyType, value, metrics)
		})
	}

	poolErr := lookupPool.Wait()
	if poolErr != nil {
		s.logger.Warn("Some lookups failed", zap.Error(poolErr))
	}

	duration := s.now().Sub(startTime)

	if jobID != uuid.Nil {
		result := postgres.SyncJobResult{
			ID:       jobID,
			Status:   "completed",
			Found:    metrics.LeadsFound,
			NotFound: metrics.LeadsNotFound,
			Failed:   metrics.LeadsFailed,
			Duration: duration,
		}
		if poolErr != nil {
			result.Status = "completed_with_errors"
			result.Error = poolErr.Error()
		}
		if err := s.store.CompleteSyncJob(ctx, result); err != nil {
			s.logger.Warn("Failed to complete sync job",
				zap.String("job_id", jobID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Completed lead sync",
		zap.Duration("duration", duration),
		zap.Int("leads_found", metrics.LeadsFound),
		zap.Int("leads_not_found", metrics.LeadsNotFound),
		zap.Int("leads_failed", metrics.LeadsFailed),
		zap.Int("snapshots_saved", metrics.SnapshotsSaved),
		zap.Int("snapshots_failed", metrics.SnapshotsFailed))

	return metrics, nil
}

func (s *SyncService) syncKey(ctx context.Context, jobID uuid.UUID, keyType, value string, metrics *SyncMetrics) error {
	lookup, err := s.client.GetLeadBy(ctx, keyType, value)
	if err != nil {
		metrics.AddFailure()
		s.logger.Error("Failed to look up lead",
			zap.String("key_type", keyType),
			zap.String("key_value", value),
			zap.Error(err))
		return fmt.Errorf("lookup %s %s: %w", keyType, value, err)
	}

	// a key that stopped matching still replaces its rows, with none
	fetchedAt := s.now()
	snapshots := make([]postgres.LeadSnapshot, 0, len(lookup.Leads))
	if lookup.Found() {
		for i, lead := range lookup.Leads {
			snapshots = append(snapshots, postgres.LeadSnapshot{
				JobID:      jobID,
				KeyType:    keyType,
				KeyValue:   value,
				LeadIndex:  i,
				Attributes: lead,
				FetchedAt:  fetchedAt,
			})
		}
	}

	saveErr := s.store.ReplaceSnapshots(ctx, keyType, value, snapshots)

	if !lookup.Found() {
		metrics.AddNotFound()
		s.logger.Debug("Lead not found",
			zap.String("key_type", keyType),
			zap.String("key_value", value))
	} else if saveErr != nil {
		metrics.AddFound(0, len(snapshots))
	} else {
		metrics.AddFound(len(snapshots), 0)
	}

	if saveErr != nil {
		return fmt.Errorf("save %s %s: %w", keyType, value, saveErr)
	}
	return nil
}

func uniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
