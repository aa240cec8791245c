package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
	"github.com/tianputao/data-pipeline-agent/internal/llm"
)

// ModelExtractor is the external extraction step. It is optional; without
// one the synthesizer runs on the text rules alone.
type ModelExtractor interface {
	ExtractConfig(ctx context.Context, text string) (llm.ExtractResult, error)
}

// SynthesizerOptions wires the synthesizer's collaborators and site-level
// defaults.
type SynthesizerOptions struct {
	Model    ModelExtractor
	BasePath string
	Catalog  string
}

// Synthesizer turns a job request into a validated JobConfig. The pipeline
// is a fixed stage order: acquire a draft, prefill from text, apply protocol
// defaults, validate required fields, construct the typed config (with one
// heuristic rebuild on failure), inject credentials, then augment. Stages
// communicate only through the draft; nothing mutates a stage's input.
type Synthesizer struct {
	log      zerolog.Logger
	model    ModelExtractor
	basePath string
	catalog  string
}

func NewSynthesizer(log zerolog.Logger, opts SynthesizerOptions) *Synthesizer {
	basePath := opts.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Synthesizer{
		log:      log,
		model:    opts.Model,
		basePath: basePath,
		catalog:  opts.Catalog,
	}
}

// Synthesize resolves the request into a complete configuration. A
// structured config bypasses the text pipeline entirely; Config wins when
// both inputs are present.
func (s *Synthesizer) Synthesize(ctx context.Context, req domain.JobRequest) (*domain.JobConfig, error) {
	if req.Config != nil {
		cfg := *req.Config
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	text := strings.TrimSpace(req.NaturalLanguage)
	if text == "" {
		return nil, domain.ErrMissingInput
	}

	draft, err := s.acquireDraft(ctx, text)
	if err != nil {
		return nil, err
	}

	fields := Extract(text)
	draft = s.prefill(draft, fields)
	draft = s.protocolDefaults(draft, fields)

	if missing := MissingFields(draft, text); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	cfg, err := draft.ToConfig()
	if err != nil {
		s.log.Warn().Err(err).Msg("draft failed typed construction; rebuilding from text")
		fallback := BuildFromText(text)
		if fallback == nil {
			return nil, synthesisFailed(err)
		}
		cfg, err = fallback.ToConfig()
		if err != nil {
			return nil, synthesisFailed(err)
		}
	}

	s.injectCredentials(cfg, text)
	if err := s.augment(cfg, fields); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("job", cfg.JobName).
		Str("source", string(cfg.Source.Type)).
		Str("sink", string(cfg.Sink.Type)).
		Msg("synthesized config from natural language")
	return cfg, nil
}

// acquireDraft runs the external extraction step once. A reported
// missing-fields result is surfaced to the caller; every other failure mode
// degrades to an empty draft so the text rules get their turn.
func (s *Synthesizer) acquireDraft(ctx context.Context, text string) (Draft, error) {
	if s.model == nil {
		return Draft{}, nil
	}
	result, err := s.model.ExtractConfig(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("model extraction failed; continuing text-only")
		return Draft{}, nil
	}
	switch result.Kind {
	case llm.ResultValidationError:
		return Draft{}, &MissingFieldsError{Fields: result.Missing, FromModel: true}
	case llm.ResultUnparseable:
		s.log.Warn().Str("raw", truncate(result.Raw, 200)).Msg("model returned non-JSON output; continuing text-only")
		return Draft{}, nil
	}
	draft, err := DraftFromMap(result.Fields)
	if err != nil {
		var malformed *MalformedDraftError
		if errors.As(err, &malformed) {
			s.log.Warn().Err(err).Msg("model draft unusable; continuing text-only")
			return Draft{}, nil
		}
		return Draft{}, err
	}
	return draft, nil
}

// prefill merges text-derived candidates and then static defaults into the
// draft. Text candidates go first so a default never shadows something the
// user actually said.
func (s *Synthesizer) prefill(d Draft, f Fields) Draft {
	fromText := Patch{}
	fromText.Set(FieldSourceType, string(f.SourceType))
	fromText.Set(FieldSourceTable, f.SourceTable)
	fromText.Set(FieldSourceTopic, f.Topic)
	fromText.Set(FieldSourceIncrement, f.IncrementField)
	fromText.Set(FieldSourceFrequency, f.Frequency)
	fromText.Set(FieldSinkLayer, f.Layer)
	fromText.Set(FieldSinkMode, f.Mode)
	if f.SinkTable != "" {
		// A bare sink table stays bare: the validator, not a placeholder,
		// decides what happens when no schema was given.
		if strings.Contains(f.SinkTable, ".") {
			schema, table := splitQualified(f.SinkTable)
			fromText.Set(FieldSinkDatabase, schema)
			fromText.Set(FieldSinkTable, table)
		} else {
			fromText.Set(FieldSinkTable, f.SinkTable)
		}
	}
	d = d.Apply(fromText)

	defaults := Patch{}
	defaults.Set(FieldSinkType, DefaultSinkType)
	defaults.Set(FieldSinkLayer, DefaultLayer)
	defaults.Set(FieldSinkMode, DefaultMode)
	if domain.SourceType(d.Source.Type).Streaming() {
		defaults.Set(FieldSourceFrequency, string(domain.FrequencyStreaming))
	} else {
		defaults.Set(FieldSourceFrequency, defaultFrequency)
	}
	return d.Apply(defaults)
}

// protocolDefaults normalizes the draft against the source dialect: schema
// qualification, connection URL, sink table splitting, storage path, job
// name. These are deterministic rewrites, not guesses.
func (s *Synthesizer) protocolDefaults(d Draft, f Fields) Draft {
	srcType := domain.SourceType(d.Source.Type)
	d.Source.Table = QualifyTable(srcType, d.Source.Table)

	if srcType.Relational() && d.Source.JDBCURL == "" && f.Host != "" {
		d.Source.JDBCURL = JDBCURL(srcType, f.Host, f.Port, f.Database)
	}

	if strings.Contains(d.Sink.Table, ".") && d.Sink.Database == "" {
		d.Sink.Database, d.Sink.Table = splitQualified(d.Sink.Table)
	}
	if d.Sink.Database == "" {
		d.Sink.Database = f.SinkSchema
	}
	if d.Sink.Path == "" && d.Sink.Table != "" {
		d.Sink.Path = StoragePath(s.base(f), d.Sink.Layer, d.Sink.Database, d.Sink.Table)
	}
	// The writer takes the path positionally; a duplicate in options wins
	// over it in Spark and must not survive.
	delete(d.Sink.Options, "path")

	if d.JobName == "" {
		d.JobName = jobNameFor(d)
	}
	return d
}

func (s *Synthesizer) injectCredentials(cfg *domain.JobConfig, text string) {
	creds := ExtractCredentials(text)
	if creds.Empty() {
		return
	}
	if cfg.Source.Options == nil {
		cfg.Source.Options = map[string]string{}
	}
	// The one authoritative overwrite in the pipeline: inline credentials
	// always win, under the exact keys the Spark JDBC reader expects.
	if creds.User != "" {
		cfg.Source.Options["user"] = creds.User
	}
	if creds.Password != "" {
		cfg.Source.Options["password"] = creds.Password
	}
	s.log.Info().Msg("injected inline credentials into source options")
}

// augment fills whatever the earlier stages left open on the typed config.
// It is idempotent: running it on an already complete config changes
// nothing.
func (s *Synthesizer) augment(cfg *domain.JobConfig, f Fields) error {
	if cfg.Source.Type.Relational() && cfg.Source.JDBCURL == "" {
		if f.Host == "" {
			return fmt.Errorf("%w: provide the source host and database, or use YAML/JSON config mode", domain.ErrUnresolvableConnection)
		}
		cfg.Source.JDBCURL = JDBCURL(cfg.Source.Type, f.Host, f.Port, f.Database)
	}

	if cfg.Sink.Table == "" && f.SinkTable != "" {
		schema, table := splitQualified(f.SinkTable)
		cfg.Sink.Table = table
		if cfg.Sink.Database == "" && strings.Contains(f.SinkTable, ".") {
			cfg.Sink.Database = schema
		}
	}
	if cfg.Sink.Catalog == "" && s.catalog != "" {
		cfg.Sink.Catalog = s.catalog
	}
	if cfg.Sink.Layer == "" {
		cfg.Sink.Layer = DefaultLayer
	}
	if cfg.Sink.Path == "" && cfg.Sink.Table != "" {
		cfg.Sink.Path = StoragePath(s.base(f), cfg.Sink.Layer, cfg.Sink.Database, cfg.Sink.Table)
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = domain.SinkType(DefaultSinkType)
	}
	return nil
}

func (s *Synthesizer) base(f Fields) string {
	if f.BasePath != "" {
		return f.BasePath
	}
	return s.basePath
}

func jobNameFor(d Draft) string {
	switch {
	case d.Sink.Table != "":
		name := d.Sink.Table
		if d.Sink.Database != "" {
			name = d.Sink.Database + "." + name
		}
		return "ingest_" + strings.ReplaceAll(name, ".", "_")
	case d.Source.Table != "":
		return "ingest_" + strings.ReplaceAll(d.Source.Table, ".", "_")
	}
	return DefaultJobName
}

func synthesisFailed(cause error) error {
	return fmt.Errorf("%w: could not produce a valid ingestion plan from the description; describe the data source, fields, transformations, and sink explicitly, or paste a YAML/JSON config (%v)",
		domain.ErrStructuralInvalid, cause)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
