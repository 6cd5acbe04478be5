package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// Schema creates the tables used by leadsync
const Schema = `
CREATE TABLE IF NOT EXISTS sync_jobs (
	id              UUID PRIMARY KEY,
	job_type        TEXT NOT NULL,
	key_type        TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_items     INTEGER NOT NULL DEFAULT 0,
	found_items     INTEGER NOT NULL DEFAULT 0,
	not_found_items INTEGER NOT NULL DEFAULT 0,
	failed_items    INTEGER NOT NULL DEFAULT 0,
	duration_ms     INTEGER,
	error           TEXT,
	started_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS lead_snapshots (
	key_type    TEXT NOT NULL,
	key_value   TEXT NOT NULL,
	lead_index  INTEGER NOT NULL,
	job_id      UUID REFERENCES sync_jobs (id),
	attributes  JSONB NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (key_type, key_value, lead_index)
);
`

// SyncJob is a leadsync run
type SyncJob struct {
	ID         uuid.UUID
	JobType    string
	KeyType    string
	TotalItems int
	StartedAt  time.Time
}

// SyncJobResult closes a SyncJob
type SyncJobResult struct {
	ID       uuid.UUID
	Status   string
	Found    int
	NotFound int
	Failed   int
	Duration time.Duration
	Error    string
}

// LeadSnapshot is one lead as returned by a lookup. A key may match several
// leads; LeadIndex tells them apart.
type LeadSnapshot struct {
	JobID      uuid.UUID
	KeyType    string
	KeyValue   string
	LeadIndex  int
	Attributes map[string]interface{}
	FetchedAt  time.Time
}

// CreateSyncJob records the start of a run
func (db *DB) CreateSyncJob(ctx context.Context, job SyncJob) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_jobs (id, job_type, key_type, status, total_items, started_at)
		VALUES ($1, $2, $3, 'running', $4, $5)`,
		pgtype.UUID{Bytes: job.ID, Valid: true}, job.JobType, job.KeyType, int32(job.TotalItems), job.StartedAt)
	if err != nil {
		db.logger.Error("Failed to create sync job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create sync job %s: %w", job.ID, err)
	}
	return nil
}

// ReplaceSnapshots makes snapshots the stored leads for one key. Rows from
// earlier runs are deleted in the same transaction, so a key that now
// matches fewer leads, or none, keeps no stale rows.
func (db *DB) ReplaceSnapshots(ctx context.Context, keyType, keyValue string, snapshots []LeadSnapshot) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM lead_snapshots
		WHERE key_type = $1 AND key_value = $2`,
		keyType, keyValue)
	if err != nil {
		return db.snapshotError(keyType, keyValue, err)
	}

	for _, s := range snapshots {
		attributes, err := json.Marshal(s.Attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal lead attributes: %w", err)
		}

		jobID := pgtype.UUID{Bytes: s.JobID, Valid: s.JobID != uuid.Nil}

		_, err = tx.Exec(ctx, `
			INSERT INTO lead_snapshots (key_type, key_value, lead_index, job_id, attributes, fetched_at)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
			keyType, keyValue, int32(s.LeadIndex), jobID, string(attributes), s.FetchedAt)
		if err != nil {
			return db.snapshotError(keyType, keyValue, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return db.snapshotError(keyType, keyValue, err)
	}

	db.logger.Debug("Replaced lead snapshots",
		zap.String("key_type", keyType),
		zap.String("key_value", keyValue),
		zap.Int64("deleted", tag.RowsAffected()),
		zap.Int("saved", len(snapshots)))
	return nil
}

func (db *DB) snapshotError(keyType, keyValue string, err error) error {
	db.logger.Error("Failed to save lead snapshots",
		zap.String("key_type", keyType),
		zap.String("key_value", keyValue),
		zap.Error(err))
	return fmt.Errorf("failed to save snapshots for %s %s: %w", keyType, keyValue, err)
}

// CompleteSyncJob stores the outcome of a run
func (db *DB) CompleteSyncJob(ctx context.Context, r SyncJobResult) error {
	durationMs := pgtype.Int4{Int32: int32(r.Duration.Milliseconds()), Valid: true}
	errText := pgtype.Text{String: r.Error, Valid: r.Error != ""}

	_, err := db.pool.Exec(ctx, `
		UPDATE sync_jobs
		SET status = $2,
		    found_items = $3,
		    not_found_items = $4,
		    failed_items = $5,
		    duration_ms = $6,
		    error = $7,
		    completed_at = now()
		WHERE id = $1`,
		pgtype.UUID{Bytes: r.ID, Valid: true}, r.Status, int32(r.Found), int32(r.NotFound), int32(r.Failed), durationMs, errText)
	if err != nil {
		db.logger.Error("Failed to complete sync job", zap.String("job_id", r.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to complete sync job %s: %w", r.ID, err)
	}
	return nil
}
