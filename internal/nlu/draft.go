package nlu

import (
	"fmt"
	"strings"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

// Draft is the untyped, partially populated configuration the pipeline
// stages fill in before typed construction. Stages communicate through
// Patches; a Patch value lands only in a slot that is still empty, so later
// stages can never clobber earlier explicit values.
type Draft struct {
	JobName     string
	Description string
	Source      SourceDraft
	Sink        SinkDraft
	Transform   TransformDraft
	Tags        map[string]string
}

type SourceDraft struct {
	Type           string
	JDBCURL        string
	Table          string
	Topic          string
	IncrementField string
	Frequency      string
	Options        map[string]string
}

type SinkDraft struct {
	Type     string
	Path     string
	Catalog  string
	Database string
	Table    string
	Mode     string
	Layer    string
	Options  map[string]string
}

type TransformDraft struct {
	Select    []string
	Rename    map[string]string
	Convert   map[string]string
	Aggregate *domain.AggregateSpec
}

// Field paths addressable by a Patch.
const (
	FieldJobName         = "job_name"
	FieldDescription     = "description"
	FieldSourceType      = "source.type"
	FieldSourceJDBCURL   = "source.jdbc_url"
	FieldSourceTable     = "source.table"
	FieldSourceTopic     = "source.topic"
	FieldSourceIncrement = "source.increment_field"
	FieldSourceFrequency = "source.frequency"
	FieldSinkType        = "sink.type"
	FieldSinkPath        = "sink.path"
	FieldSinkCatalog     = "sink.catalog"
	FieldSinkDatabase    = "sink.database"
	FieldSinkTable       = "sink.table"
	FieldSinkMode        = "sink.mode"
	FieldSinkLayer       = "sink.layer"
)

// Patch maps field paths to candidate values. Empty values are ignored.
type Patch map[string]string

// Set records a candidate value, dropping empties so a Patch stays sparse.
func (p Patch) Set(field, value string) {
	if value != "" {
		p[field] = value
	}
}

// Apply returns a copy of the draft with every patch value written into its
// slot, but only where the slot is currently empty.
func (d Draft) Apply(p Patch) Draft {
	for field, value := range p {
		if value == "" {
			continue
		}
		if slot := d.slot(field); slot != nil && *slot == "" {
			*slot = value
		}
	}
	return d
}

func (d *Draft) slot(field string) *string {
	switch field {
	case FieldJobName:
		return &d.JobName
	case FieldDescription:
		return &d.Description
	case FieldSourceType:
		return &d.Source.Type
	case FieldSourceJDBCURL:
		return &d.Source.JDBCURL
	case FieldSourceTable:
		return &d.Source.Table
	case FieldSourceTopic:
		return &d.Source.Topic
	case FieldSourceIncrement:
		return &d.Source.IncrementField
	case FieldSourceFrequency:
		return &d.Source.Frequency
	case FieldSinkType:
		return &d.Sink.Type
	case FieldSinkPath:
		return &d.Sink.Path
	case FieldSinkCatalog:
		return &d.Sink.Catalog
	case FieldSinkDatabase:
		return &d.Sink.Database
	case FieldSinkTable:
		return &d.Sink.Table
	case FieldSinkMode:
		return &d.Sink.Mode
	case FieldSinkLayer:
		return &d.Sink.Layer
	}
	return nil
}

// DraftFromMap converts an opaque external mapping (typically model output)
// into a Draft. The source and sink sections must be objects when present;
// anything else is a MalformedDraftError. Transformation shapes the model
// commonly gets wrong are coerced here: a {"columns": [...]} select becomes
// a plain list, and list-shaped aggregate metrics become an empty mapping.
func DraftFromMap(m map[string]any) (Draft, error) {
	var d Draft
	src, err := section(m, "source")
	if err != nil {
		return Draft{}, err
	}
	sink, err := section(m, "sink")
	if err != nil {
		return Draft{}, err
	}

	d.JobName = stringValue(m["job_name"])
	d.Description = stringValue(m["description"])
	d.Tags = stringMap(m["tags"])

	d.Source = SourceDraft{
		Type:           stringValue(src["type"]),
		JDBCURL:        stringValue(src["jdbc_url"]),
		Table:          stringValue(src["table"]),
		Topic:          stringValue(src["topic"]),
		IncrementField: stringValue(src["increment_field"]),
		Frequency:      stringValue(src["frequency"]),
		Options:        stringMap(src["options"]),
	}
	d.Sink = SinkDraft{
		Type:     stringValue(sink["type"]),
		Path:     stringValue(sink["path"]),
		Catalog:  stringValue(sink["catalog"]),
		Database: stringValue(sink["database"]),
		Table:    stringValue(sink["table"]),
		Mode:     stringValue(sink["mode"]),
		Layer:    stringValue(sink["layer"]),
		Options:  stringMap(sink["options"]),
	}

	// Transformations are optional; a non-object shape degrades to empty.
	if tf, ok := m["transformations"].(map[string]any); ok {
		d.Transform = transformFromMap(tf)
	}
	return d, nil
}

func transformFromMap(tf map[string]any) TransformDraft {
	var t TransformDraft
	switch sel := tf["select"].(type) {
	case []any:
		t.Select = stringSlice(sel)
	case map[string]any:
		if cols, ok := sel["columns"].([]any); ok {
			t.Select = stringSlice(cols)
		}
	}
	t.Rename = stringMap(tf["rename"])
	t.Convert = stringMap(tf["convert"])
	if agg, ok := tf["aggregate"].(map[string]any); ok {
		spec := &domain.AggregateSpec{
			Window:  stringValue(agg["window"]),
			Metrics: map[string]string{},
		}
		if gb, ok := agg["group_by"].([]any); ok {
			spec.GroupBy = stringSlice(gb)
		}
		// Metrics must be column->function; a list degrades to empty.
		if metrics, ok := agg["metrics"].(map[string]any); ok {
			spec.Metrics = stringMap(metrics)
		}
		t.Aggregate = spec
	}
	return t
}

// ToConfig performs typed construction: it materializes the immutable
// JobConfig and checks every data-model invariant.
func (d Draft) ToConfig() (*domain.JobConfig, error) {
	cfg := domain.NewJobConfig()
	cfg.JobName = d.JobName
	cfg.Description = d.Description
	cfg.Tags = d.Tags
	cfg.Source = domain.SourceSpec{
		Type:           domain.SourceType(d.Source.Type),
		JDBCURL:        d.Source.JDBCURL,
		Table:          d.Source.Table,
		Topic:          d.Source.Topic,
		IncrementField: d.Source.IncrementField,
		Frequency:      domain.Frequency(d.Source.Frequency),
		Options:        d.Source.Options,
	}
	cfg.Sink = domain.SinkSpec{
		Type:     domain.SinkType(d.Sink.Type),
		Path:     d.Sink.Path,
		Catalog:  d.Sink.Catalog,
		Database: d.Sink.Database,
		Table:    d.Sink.Table,
		Mode:     d.Sink.Mode,
		Layer:    d.Sink.Layer,
		Options:  d.Sink.Options,
	}
	cfg.Transformations = domain.TransformationSpec{
		Select:    d.Transform.Select,
		Rename:    d.Transform.Rename,
		Convert:   d.Transform.Convert,
		Aggregate: d.Transform.Aggregate,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func section(m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &MalformedDraftError{Section: key, Reason: fmt.Sprintf("expected object, got %T", v)}
	}
	return obj, nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool:
		return fmt.Sprintf("%t", s)
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return ""
	}
}

func stringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		out[k] = stringValue(val)
	}
	return out
}

func stringSlice(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := stringValue(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
