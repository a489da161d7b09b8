package repo

import (
	"context"
	"fmt"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/sqlinline"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

// StudioJobRepository keeps the history of studio video jobs.
type StudioJobRepository struct {
	sql infra.SQLExecutor
}

func NewStudioJobRepository(sql infra.SQLExecutor) *StudioJobRepository {
	return &StudioJobRepository{sql: sql}
}

// RecordJob upserts rec by id. Result locations are stored without access keys.
func (r *StudioJobRepository) RecordJob(ctx context.Context, rec studio.JobRecord) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertStudioJob,
		rec.ID,
		rec.SessionID,
		string(rec.Kind),
		string(rec.State),
		string(rec.Handle),
		rec.Prompt,
		rec.ResultLocation,
		rec.Error,
		rec.StartedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record studio job: %w", err)
	}
	return nil
}

// ListBySession returns the newest jobs of a session first.
func (r *StudioJobRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]studio.JobRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListStudioJobsBySession, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list studio jobs: %w", err)
	}
	defer rows.Close()

	var out []studio.JobRecord
	for rows.Next() {
		var (
			rec         studio.JobRecord
			kind, state string
			handle      string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &kind, &state, &handle, &rec.Prompt, &rec.ResultLocation, &rec.Error, &rec.StartedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan studio job: %w", err)
		}
		rec.Kind = studio.Kind(kind)
		rec.State = studio.JobState(state)
		rec.Handle = studio.JobHandle(handle)
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ studio.JobRecorder = (*StudioJobRepository)(nil)
