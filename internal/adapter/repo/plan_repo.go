package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
	"github.com/tianputao/data-pipeline-agent/internal/sqlinline"
)

// PlanRecord is one synthesized plan as stored in the history table.
type PlanRecord struct {
	ID              uuid.UUID        `json:"id"`
	JobName         string           `json:"job_name"`
	NaturalLanguage string           `json:"natural_language,omitempty"`
	Config          domain.JobConfig `json:"config"`
	ScriptPath      string           `json:"script_path,omitempty"`
	RunID           string           `json:"run_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// PlanRepositoryPG persists plan history in PostgreSQL.
type PlanRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPlanRepository constructs a new plan repository instance.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepositoryPG {
	return &PlanRepositoryPG{pool: pool}
}

// Insert records a synthesized plan and returns its id.
func (r *PlanRepositoryPG) Insert(ctx context.Context, rec PlanRecord) (uuid.UUID, error) {
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return uuid.Nil, err
	}
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var out uuid.UUID
	err = r.pool.QueryRow(ctx, sqlinline.QInsertPlan,
		id, rec.JobName, rec.NaturalLanguage, cfg, rec.ScriptPath, rec.RunID,
	).Scan(&out)
	if err != nil {
		return uuid.Nil, err
	}
	return out, nil
}

// ListRecent returns the newest plans, most recent first.
func (r *PlanRepositoryPG) ListRecent(ctx context.Context, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, sqlinline.QListRecentPlans, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns a single plan by id.
func (r *PlanRepositoryPG) Get(ctx context.Context, id uuid.UUID) (*PlanRecord, error) {
	return scanPlan(r.pool.QueryRow(ctx, sqlinline.QGetPlan, id))
}

func scanPlan(row pgx.Row) (*PlanRecord, error) {
	var (
		rec        PlanRecord
		cfg        []byte
		scriptPath *string
		runID      *string
	)
	err := row.Scan(&rec.ID, &rec.JobName, &rec.NaturalLanguage, &cfg, &scriptPath, &runID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.Config = domain.NewJobConfig()
	if err := json.Unmarshal(cfg, &rec.Config); err != nil {
		return nil, err
	}
	if scriptPath != nil {
		rec.ScriptPath = *scriptPath
	}
	if runID != nil {
		rec.RunID = *runID
	}
	return &rec, nil
}
