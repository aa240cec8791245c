package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tianputao/data-pipeline-agent/internal/adapter/repo"
	"github.com/tianputao/data-pipeline-agent/internal/agent"
	"github.com/tianputao/data-pipeline-agent/internal/domain"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/nlu"
)

// App is the handler container. Plans is nil when no database is
// configured; history endpoints then report the feature as unavailable.
type App struct {
	Logger  infra.Logger
	Service *agent.Service
	Plans   *repo.PlanRepositoryPG
}

func NewApp(logger infra.Logger, service *agent.Service, plans *repo.PlanRepositoryPG) *App {
	return &App{Logger: logger, Service: service, Plans: plans}
}

type errorResponse struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorResponse{Error: message})
}

// synthesisError maps pipeline failures onto HTTP status codes: bad input is
// 400, recoverable validation problems are 422, upstream failures are 502.
// Missing-field messages go out verbatim; their shape is a UI contract.
func (a *App) synthesisError(w http.ResponseWriter, err error) {
	var missing *nlu.MissingFieldsError
	switch {
	case errors.Is(err, domain.ErrMissingInput):
		a.jsonError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &missing):
		a.json(w, http.StatusUnprocessableEntity, errorResponse{
			Error:         missing.Error(),
			MissingFields: missing.Fields,
		})
	case errors.Is(err, domain.ErrUnresolvableConnection),
		errors.Is(err, domain.ErrStructuralInvalid):
		a.jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.jsonError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.jsonError(w, http.StatusNotFound, err.Error())
	default:
		a.Logger.Error().Err(err).Msg("unhandled synthesis error")
		a.jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
