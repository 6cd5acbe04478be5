package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/mktows/leadsync/schema/postgres"
	"github.com/natserract/mktows/pkg/marketo"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	marketo.MarketoClient
	leads map[string][]marketo.Lead
	fail  map[string]error

	mu      sync.Mutex
	lookups []string
}

func (f *fakeClient) GetLeadBy(ctx context.Context, keyType, keyValue string) (*marketo.LeadLookup, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, keyType+":"+keyValue)
	f.mu.Unlock()

	if err, ok := f.fail[keyValue]; ok {
		return nil, err
	}
	leads, ok := f.leads[keyValue]
	if !ok {
		return &marketo.LeadLookup{Status: marketo.LookupNotFound}, nil
	}
	return &marketo.LeadLookup{Status: marketo.LookupFound, Leads: leads}, nil
}

var _ SnapshotStore = (*postgres.DB)(nil)

type fakeStore struct {
	createErr error
	saveErr   error

	mu       sync.Mutex
	jobs     []postgres.SyncJob
	rows     map[string][]postgres.LeadSnapshot
	replaced int
	results  []postgres.SyncJobResult
}

func (f *fakeStore) CreateSyncJob(ctx context.Context, job postgres.SyncJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeStore) ReplaceSnapshots(ctx context.Context, keyType, keyValue string, snapshots []postgres.LeadSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[string][]postgres.LeadSnapshot)
	}
	f.rows[keyType+"|"+keyValue] = snapshots
	f.replaced++
	return nil
}

// snapshots returns the stored rows ordered by key and lead index
func (f *fakeStore) snapshots() []postgres.LeadSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []postgres.LeadSnapshot
	for _, rows := range f.rows {
		out = append(out, rows...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.KeyValue != b.KeyValue {
			return a.KeyValue < b.KeyValue
		}
		return a.LeadIndex < b.LeadIndex
	})
	return out
}

func (f *fakeStore) CompleteSyncJob(ctx context.Context, r postgres.SyncJobResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestSyncLeads(t *testing.T) {
	client := &fakeClient{
		leads: map[string][]marketo.Lead{
			"a@example.com": {{"Id": int64(1), "Email": "a@example.com"}},
			"dup@example.com": {
				{"Id": int64(2), "Email": "dup@example.com"},
				{"Id": int64(3), "Email": "dup@example.com"},
			},
		},
	}
	store := &fakeStore{}
	svc := NewSyncService(client, store, zaptest.NewLogger(t)).WithConcurrency(2)
	svc.now = fixedClock()

	metrics, err := svc.SyncLeads(context.Background(), "email", []string{
		"a@example.com", "dup@example.com", "missing@example.com", " a@example.com ", "",
	})
	if err != nil {
		t.Fatalf("SyncLeads: %v", err)
	}

	if metrics.LeadsFound != 2 || metrics.LeadsNotFound != 1 || metrics.LeadsFailed != 0 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
	if metrics.SnapshotsSaved != 3 || metrics.TotalProcessed() != 3 {
		t.Errorf("expected 3 snapshots and 3 keys, got %d and %d", metrics.SnapshotsSaved, metrics.TotalProcessed())
	}
	if len(client.lookups) != 3 {
		t.Errorf("expected duplicate keys to be looked up once, got %v", client.lookups)
	}

	if len(store.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(store.jobs))
	}
	job := store.jobs[0]
	if job.KeyType != "EMAIL" || job.TotalItems != 3 || job.JobType != jobTypeLeadSnapshot {
		t.Errorf("unexpected job %+v", job)
	}

	snapshots := store.snapshots()
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 stored snapshots, got %+v", snapshots)
	}
	for _, s := range snapshots {
		if s.JobID != job.ID {
			t.Errorf("snapshot not linked to job: %+v", s)
		}
	}
	if rows, ok := store.rows["EMAIL|missing@example.com"]; !ok || len(rows) != 0 {
		t.Errorf("expected missing key to be cleared, got %v (%v)", rows, ok)
	}
	if got := snapshots[2]; got.KeyValue != "dup@example.com" || got.LeadIndex != 1 || got.Attributes["Id"] != int64(3) {
		t.Errorf("unexpected snapshot %+v", got)
	}

	if len(store.results) != 1 || store.results[0].Status != "completed" {
		t.Fatalf("unexpected job results %+v", store.results)
	}
	if r := store.results[0]; r.Found != 2 || r.NotFound != 1 || r.ID != job.ID {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestSyncLeads_LookupFailures(t *testing.T) {
	client := &fakeClient{
		leads: map[string][]marketo.Lead{"1": {{"Id": int64(1)}}},
		fail:  map[string]error{"2": errors.New("soap fault 20015: Request limit exceeded")},
	}
	store := &fakeStore{}
	svc := NewSyncService(client, store, zaptest.NewLogger(t))
	svc.now = fixedClock()

	metrics, err := svc.SyncLeads(context.Background(), "IDNUM", []string{"1", "2"})
	if err != nil {
		t.Fatalf("SyncLeads: %v", err)
	}
	if metrics.LeadsFound != 1 || metrics.LeadsFailed != 1 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
	if len(store.results) != 1 {
		t.Fatalf("expected job to be completed")
	}
	r := store.results[0]
	if r.Status != "completed_with_errors" || r.Failed != 1 || r.Error == "" {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestSyncLeads_SnapshotFailures(t *testing.T) {
	client := &fakeClient{leads: map[string][]marketo.Lead{"1": {{"Id": int64(1)}}}}
	store := &fakeStore{saveErr: errors.New("connection refused")}
	svc := NewSyncService(client, store, zaptest.NewLogger(t))

	metrics, err := svc.SyncLeads(context.Background(), "IDNUM", []string{"1"})
	if err != nil {
		t.Fatalf("SyncLeads: %v", err)
	}
	if metrics.LeadsFound != 1 || metrics.SnapshotsFailed != 1 || metrics.SnapshotsSaved != 0 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
	if store.results[0].Status != "completed_with_errors" {
		t.Errorf("expected completed_with_errors, got %s", store.results[0].Status)
	}
}

func TestSyncLeads_ReplacesStaleSnapshots(t *testing.T) {
	client := &fakeClient{leads: map[string][]marketo.Lead{
		"dup@example.com": {
			{"Id": int64(2), "Email": "dup@example.com"},
			{"Id": int64(3), "Email": "dup@example.com"},
		},
	}}
	store := &fakeStore{}
	svc := NewSyncService(client, store, zaptest.NewLogger(t))
	svc.now = fixedClock()
	keys := []string{"dup@example.com"}

	if _, err := svc.SyncLeads(context.Background(), "EMAIL", keys); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if got := store.snapshots(); len(got) != 2 {
		t.Fatalf("expected 2 snapshots after first run, got %+v", got)
	}

	// one of the duplicates was merged away
	client.leads["dup@example.com"] = []marketo.Lead{{"Id": int64(3), "Email": "dup@example.com"}}
	if _, err := svc.SyncLeads(context.Background(), "EMAIL", keys); err != nil {
		t.Fatalf("second run: %v", err)
	}
	got := store.snapshots()
	if len(got) != 1 || got[0].LeadIndex != 0 || got[0].Attributes["Id"] != int64(3) {
		t.Fatalf("expected only the remaining lead, got %+v", got)
	}

	delete(client.leads, "dup@example.com")
	metrics, err := svc.SyncLeads(context.Background(), "EMAIL", keys)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if metrics.LeadsNotFound != 1 {
		t.Errorf("expected not found, got %+v", metrics)
	}
	if got := store.snapshots(); len(got) != 0 {
		t.Errorf("expected no snapshots for a key that no longer matches, got %+v", got)
	}
	if store.replaced != 3 {
		t.Errorf("expected one replace per run, got %d", store.replaced)
	}
}

func TestSyncLeads_UntrackedWhenJobCreateFails(t *testing.T) {
	client := &fakeClient{leads: map[string][]marketo.Lead{"1": {{"Id": int64(1)}}}}
	store := &fakeStore{createErr: errors.New("relation \"sync_jobs\" does not exist")}
	svc := NewSyncService(client, store, zaptest.NewLogger(t))

	metrics, err := svc.SyncLeads(context.Background(), "IDNUM", []string{"1"})
	if err != nil {
		t.Fatalf("SyncLeads: %v", err)
	}
	if metrics.SnapshotsSaved != 1 {
		t.Errorf("expected snapshot to be saved, got %+v", metrics)
	}
	if got := store.snapshots(); len(got) != 1 || got[0].JobID != uuid.Nil {
		t.Errorf("expected one snapshot with nil job id, got %+v", got)
	}
	if len(store.results) != 0 {
		t.Errorf("expected no job completion, got %+v", store.results)
	}
}

func TestSyncLeads_RequiresKeyType(t *testing.T) {
	svc := NewSyncService(&fakeClient{}, &fakeStore{}, zaptest.NewLogger(t))
	if _, err := svc.SyncLeads(context.Background(), " ", []string{"1"}); err == nil {
		t.Fatal("expected error for empty key type")
	}
}
