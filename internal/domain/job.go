package domain

import (
	"fmt"
	"strings"
)

// SourceType enumerates the supported ingestion sources.
type SourceType string

const (
	SourcePostgres  SourceType = "postgres"
	SourceMySQL     SourceType = "mysql"
	SourceSQLServer SourceType = "sqlserver"
	SourceKafka     SourceType = "kafka"
	SourceEventHubs SourceType = "event_hubs"
)

// Relational reports whether the source reads over a JDBC connection.
func (t SourceType) Relational() bool {
	switch t {
	case SourcePostgres, SourceMySQL, SourceSQLServer:
		return true
	}
	return false
}

// Streaming reports whether the source is a message stream.
func (t SourceType) Streaming() bool {
	return t == SourceKafka || t == SourceEventHubs
}

func (t SourceType) Valid() bool {
	return t.Relational() || t.Streaming()
}

// SinkType enumerates the supported sink targets.
type SinkType string

const (
	SinkDelta SinkType = "delta"
	SinkJDBC  SinkType = "jdbc"
	SinkTable SinkType = "table"
)

func (t SinkType) Valid() bool {
	switch t {
	case SinkDelta, SinkJDBC, SinkTable:
		return true
	}
	return false
}

// Frequency describes how often the job runs.
type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
	FrequencyStreaming Frequency = "streaming"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyHourly, FrequencyDaily, FrequencyStreaming:
		return true
	}
	return false
}

// SourceSpec describes where data is read from. Relational sources use
// JDBCURL and Table; streaming sources use Topic. Options is passed through
// to the Spark reader and is the only place credentials may live.
type SourceSpec struct {
	Type           SourceType        `json:"type" yaml:"type"`
	JDBCURL        string            `json:"jdbc_url,omitempty" yaml:"jdbc_url,omitempty"`
	Table          string            `json:"table,omitempty" yaml:"table,omitempty"`
	Topic          string            `json:"topic,omitempty" yaml:"topic,omitempty"`
	IncrementField string            `json:"increment_field,omitempty" yaml:"increment_field,omitempty"`
	Frequency      Frequency         `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Options        map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

func (s *SourceSpec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown source type %q", ErrStructuralInvalid, s.Type)
	}
	if s.Frequency != "" && !s.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrStructuralInvalid, s.Frequency)
	}
	if s.Type.Relational() {
		if s.JDBCURL == "" {
			return fmt.Errorf("%w: jdbc_url is required for relational sources", ErrStructuralInvalid)
		}
		if s.Table == "" {
			return fmt.Errorf("%w: table is required for relational sources", ErrStructuralInvalid)
		}
	}
	if s.Type.Streaming() {
		if s.Topic == "" {
			return fmt.Errorf("%w: topic is required for streaming sources", ErrStructuralInvalid)
		}
		if s.Frequency != FrequencyStreaming {
			return fmt.Errorf("%w: streaming sources must use frequency=streaming", ErrStructuralInvalid)
		}
	}
	if s.Frequency == FrequencyStreaming && !s.Type.Streaming() {
		return fmt.Errorf("%w: frequency=streaming is only valid for streaming sources", ErrStructuralInvalid)
	}
	return nil
}

// SinkSpec describes where data is written. Database holds the target schema
// name; Path is the physical storage location for delta sinks.
type SinkSpec struct {
	Type     SinkType          `json:"type" yaml:"type"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Catalog  string            `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Database string            `json:"database,omitempty" yaml:"database,omitempty"`
	Table    string            `json:"table,omitempty" yaml:"table,omitempty"`
	Mode     string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	Layer    string            `json:"layer,omitempty" yaml:"layer,omitempty"`
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

func (s *SinkSpec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown sink type %q", ErrStructuralInvalid, s.Type)
	}
	if s.Type == SinkDelta && s.Path == "" && s.Table == "" {
		return fmt.Errorf("%w: delta sink requires path or table", ErrStructuralInvalid)
	}
	if s.Type == SinkJDBC && s.Table == "" {
		return fmt.Errorf("%w: jdbc sink requires table name", ErrStructuralInvalid)
	}
	return nil
}

// AggregateSpec groups rows and applies column aggregations. Metrics maps a
// column name to an aggregate function (sum, avg, count, ...).
type AggregateSpec struct {
	GroupBy []string          `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Window  string            `json:"window,omitempty" yaml:"window,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TransformationSpec is the ordered projection applied between read and write.
type TransformationSpec struct {
	Select    []string          `json:"select,omitempty" yaml:"select,omitempty"`
	Rename    map[string]string `json:"rename,omitempty" yaml:"rename,omitempty"`
	Convert   map[string]string `json:"convert,omitempty" yaml:"convert,omitempty"`
	Aggregate *AggregateSpec    `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

func (t *TransformationSpec) Validate() error {
	if t.Aggregate == nil || len(t.Aggregate.Metrics) == 0 {
		return nil
	}
	for _, fn := range t.Aggregate.Metrics {
		if strings.TrimSpace(fn) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: at least one aggregate metric function is required", ErrStructuralInvalid)
}

// MonitoringSpec toggles the observability hooks rendered into the job.
type MonitoringSpec struct {
	EnableLineage bool `json:"enable_lineage" yaml:"enable_lineage"`
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics"`
	EnableAudit   bool `json:"enable_audit" yaml:"enable_audit"`
}

// DefaultMonitoring enables every monitoring hook; decode payloads over a
// config pre-seeded with it so absent keys keep the defaults.
func DefaultMonitoring() MonitoringSpec {
	return MonitoringSpec{EnableLineage: true, EnableMetrics: true, EnableAudit: true}
}

// JobConfig is the fully synthesized ingestion job. It is immutable after
// validation: the pipeline builds it once per request and hands it read-only
// to the renderer and the submission client.
type JobConfig struct {
	JobName         string             `json:"job_name" yaml:"job_name"`
	Description     string             `json:"description,omitempty" yaml:"description,omitempty"`
	Source          SourceSpec         `json:"source" yaml:"source"`
	Transformations TransformationSpec `json:"transformations" yaml:"transformations"`
	Sink            SinkSpec           `json:"sink" yaml:"sink"`
	Tags            map[string]string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Monitoring      MonitoringSpec     `json:"monitoring" yaml:"monitoring"`
}

// NewJobConfig returns a config carrying the monitoring defaults. Decode
// external payloads (JSON body, YAML file) into the value it returns.
func NewJobConfig() JobConfig {
	return JobConfig{Monitoring: DefaultMonitoring()}
}

// IsStreaming reports whether the job runs as a continuous stream.
func (c *JobConfig) IsStreaming() bool {
	return c.Source.Frequency == FrequencyStreaming
}

func (c *JobConfig) Validate() error {
	if strings.TrimSpace(c.JobName) == "" {
		return fmt.Errorf("%w: job_name is required", ErrStructuralInvalid)
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Transformations.Validate(); err != nil {
		return err
	}
	return c.Sink.Validate()
}

// JobRequest is the agent entry payload. Exactly one of NaturalLanguage or
// Config must be supplied; Config wins when both are present.
type JobRequest struct {
	NaturalLanguage string     `json:"natural_language,omitempty" yaml:"natural_language,omitempty"`
	Config          *JobConfig `json:"config,omitempty" yaml:"config,omitempty"`
	RenderOnly      bool       `json:"render_only,omitempty" yaml:"render_only,omitempty"`
}
