package domain

import "errors"

var (
	// ErrMissingInput is returned when a request carries neither natural
	// language text nor a structured config.
	ErrMissingInput = errors.New("either natural_language or config must be provided")

	// ErrStructuralInvalid marks a config that violates a data-model
	// invariant even after defaulting.
	ErrStructuralInvalid = errors.New("invalid ingestion config")

	// ErrUnresolvableConnection marks a relational source whose host/URL
	// could not be derived from any stage.
	ErrUnresolvableConnection = errors.New("missing jdbc connection info")

	// ErrProviderFailure wraps failures of external collaborators
	// (Databricks API, LLM endpoint).
	ErrProviderFailure = errors.New("provider failure")

	ErrNotFound = errors.New("not found")
)
