package nlu

import (
	"strings"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

// BuildFromText rebuilds a complete draft from the raw text alone, with no
// dependency on any externally supplied draft. It is the fallback for a
// draft that failed typed construction. A resolvable host and source table
// are the minimum; without both it returns nil ("no result") and the caller
// decides how to fail.
//
// The sink table is only ever taken from the text, never derived from the
// source table — the same policy the validator enforces in the other
// direction.
func BuildFromText(text string) *Draft {
	fields := Extract(text)
	if fields.Host == "" || fields.SourceTable == "" {
		return nil
	}
	creds := ExtractCredentials(text)

	sourceType := fields.SourceType
	if sourceType == "" {
		sourceType = domain.SourcePostgres
	}
	frequency := fields.Frequency
	if frequency == "" {
		frequency = defaultFrequency
	}
	layer := fields.Layer
	if layer == "" {
		layer = DefaultLayer
	}
	mode := fields.Mode
	if mode == "" {
		mode = DefaultMode
	}

	d := Draft{
		Source: SourceDraft{
			Type:           string(sourceType),
			JDBCURL:        JDBCURL(sourceType, fields.Host, fields.Port, fields.Database),
			Table:          QualifyTable(sourceType, fields.SourceTable),
			Topic:          fields.Topic,
			IncrementField: fields.IncrementField,
			Frequency:      frequency,
			Options:        map[string]string{},
		},
		Sink: SinkDraft{
			Type:  DefaultSinkType,
			Layer: layer,
			Mode:  mode,
		},
	}
	if creds.User != "" {
		d.Source.Options["user"] = creds.User
	}
	if creds.Password != "" {
		d.Source.Options["password"] = creds.Password
	}

	if fields.SinkTable != "" {
		schema, table := splitQualified(fields.SinkTable)
		d.Sink.Database = schema
		d.Sink.Table = table
		d.Sink.Path = StoragePath(fields.BasePath, layer, schema, table)
	}

	name := fields.SinkTable
	if name == "" {
		name = fields.SourceTable
	}
	d.JobName = "ingest_" + strings.ReplaceAll(name, ".", "_")
	return &d
}
