package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tianputao/data-pipeline-agent/internal/databricks"
	"github.com/tianputao/data-pipeline-agent/internal/domain"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/nlu"
	"github.com/tianputao/data-pipeline-agent/internal/render"
	"github.com/tianputao/data-pipeline-agent/internal/storage"
)

// Outcome is the result of planning or submitting one ingestion job.
type Outcome struct {
	Config     *domain.JobConfig `json:"config"`
	Script     string            `json:"script"`
	ScriptPath string            `json:"script_path,omitempty"`
	RunID      string            `json:"run_id,omitempty"`
}

// Service orchestrates synthesis, script rendering, archival, and Databricks
// execution. The workspace client is built lazily on first submit so plan-only
// deployments never need Databricks credentials.
type Service struct {
	cfg      *infra.Config
	log      infra.Logger
	synth    *nlu.Synthesizer
	renderer *render.Renderer
	store    *storage.ScriptStore

	mu sync.Mutex
	db *databricks.Client
}

func NewService(cfg *infra.Config, log infra.Logger, synth *nlu.Synthesizer, renderer *render.Renderer, store *storage.ScriptStore) *Service {
	return &Service{
		cfg:      cfg,
		log:      log,
		synth:    synth,
		renderer: renderer,
		store:    store,
	}
}

// Plan synthesizes the configuration and renders its script without touching
// any external system.
func (s *Service) Plan(ctx context.Context, req domain.JobRequest) (*Outcome, error) {
	cfg, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	script, err := s.renderer.Render(cfg)
	if err != nil {
		return nil, err
	}
	return &Outcome{Config: cfg, Script: script}, nil
}

// Submit plans the job, archives the script, uploads it to DBFS, and starts
// a one-off run. The uploaded script name carries a random suffix so DBFS
// caching never serves a stale version.
func (s *Service) Submit(ctx context.Context, req domain.JobRequest) (*Outcome, error) {
	outcome, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	db, err := s.databricks()
	if err != nil {
		return nil, err
	}

	scriptName := fmt.Sprintf("%s_%s", outcome.Config.JobName, uuid.NewString()[:8])
	if s.store != nil {
		if archived, err := s.store.WriteScript(ctx, scriptName, outcome.Script); err != nil {
			s.log.Warn().Err(err).Msg("failed to archive script locally")
		} else {
			s.log.Debug().Str("path", archived).Msg("archived generated script")
		}
	}

	path, err := db.UploadScript(ctx, outcome.Script, scriptName)
	if err != nil {
		return nil, err
	}
	runID, err := db.SubmitPythonTask(ctx, outcome.Config.JobName, path, outcome.Config.Tags)
	if err != nil {
		return nil, err
	}

	outcome.ScriptPath = path
	outcome.RunID = runID
	s.log.Info().
		Str("job", outcome.Config.JobName).
		Str("run_id", runID).
		Str("script", path).
		Msg("submitted ingestion run")
	return outcome, nil
}

// RunState proxies a run-state lookup for a previously submitted run.
func (s *Service) RunState(ctx context.Context, runID string) (string, error) {
	db, err := s.databricks()
	if err != nil {
		return "", err
	}
	return db.RunState(ctx, runID)
}

func (s *Service) databricks() (*databricks.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := databricks.NewClient(databricks.Options{
		Host:      s.cfg.DatabricksHost,
		Token:     s.cfg.DatabricksToken,
		ClusterID: s.cfg.DefaultClusterID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	s.db = db
	return db, nil
}
