package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tianputao/data-pipeline-agent/internal/adapter/repo"
	"github.com/tianputao/data-pipeline-agent/internal/agent"
	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

type jobRequestPayload struct {
	NaturalLanguage string          `json:"natural_language"`
	Config          json.RawMessage `json:"config"`
	RenderOnly      bool            `json:"render_only"`
}

// decodeJobRequest reads the request payload. The config section is decoded
// over a pre-seeded JobConfig so absent monitoring keys keep their defaults.
func decodeJobRequest(r *http.Request) (domain.JobRequest, error) {
	var p jobRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return domain.JobRequest{}, err
	}
	req := domain.JobRequest{
		NaturalLanguage: p.NaturalLanguage,
		RenderOnly:      p.RenderOnly,
	}
	if len(p.Config) > 0 && string(p.Config) != "null" {
		cfg := domain.NewJobConfig()
		if err := json.Unmarshal(p.Config, &cfg); err != nil {
			return domain.JobRequest{}, err
		}
		req.Config = &cfg
	}
	return req, nil
}

// PlanJob synthesizes the configuration and returns it with the rendered
// script, without touching Databricks.
func (a *App) PlanJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJobRequest(r)
	if err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	outcome, err := a.Service.Plan(r.Context(), req)
	if err != nil {
		a.synthesisError(w, err)
		return
	}
	a.recordPlan(r, req, outcome)
	a.json(w, http.StatusOK, outcome)
}

// SubmitJob plans the job and starts a one-off Databricks run. A
// render_only request degrades to planning.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJobRequest(r)
	if err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	run := a.Service.Submit
	if req.RenderOnly {
		run = a.Service.Plan
	}
	outcome, err := run(r.Context(), req)
	if err != nil {
		a.synthesisError(w, err)
		return
	}
	a.recordPlan(r, req, outcome)
	a.json(w, http.StatusOK, outcome)
}

// ListPlans returns the most recent plan history entries.
func (a *App) ListPlans(w http.ResponseWriter, r *http.Request) {
	if a.Plans == nil {
		a.jsonError(w, http.StatusServiceUnavailable, "plan history requires a configured database")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := a.Plans.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to list plans")
		a.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"plans": records})
}

// GetPlan returns a single plan history entry by id.
func (a *App) GetPlan(w http.ResponseWriter, r *http.Request) {
	if a.Plans == nil {
		a.jsonError(w, http.StatusServiceUnavailable, "plan history requires a configured database")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	record, err := a.Plans.Get(r.Context(), id)
	if err != nil {
		a.synthesisError(w, err)
		return
	}
	a.json(w, http.StatusOK, record)
}

// RunStatus reports the life-cycle state of a submitted Databricks run.
func (a *App) RunStatus(w http.ResponseWriter, r *http.Request) {
	state, err := a.Service.RunState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.synthesisError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"run_id": chi.URLParam(r, "id"), "state": state})
}

func (a *App) recordPlan(r *http.Request, req domain.JobRequest, outcome *agent.Outcome) {
	if a.Plans == nil {
		return
	}
	rec := repo.PlanRecord{
		JobName:         outcome.Config.JobName,
		NaturalLanguage: req.NaturalLanguage,
		Config:          *outcome.Config,
		ScriptPath:      outcome.ScriptPath,
		RunID:           outcome.RunID,
	}
	if _, err := a.Plans.Insert(r.Context(), rec); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to record plan history")
	}
}
