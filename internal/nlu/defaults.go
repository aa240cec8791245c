package nlu

import (
	"fmt"
	"strings"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

// Process-wide defaults for fields the text and the draft both leave empty.
const (
	DefaultBasePath = "abfss://uctarhone@tarhonemetastore.dfs.core.chinacloudapi.cn/tarhoneroot1"
	DefaultLayer    = "bronze"
	DefaultMode     = "append"
	DefaultSinkType = string(domain.SinkDelta)
	DefaultJobName  = "ingestion_job"

	defaultFrequency  = string(domain.FrequencyDaily)
	placeholderSchema = "default"
)

// SourceDefaults is the dialect-specific defaulting row: port, implicit
// schema, and the database used when the text names none.
type SourceDefaults struct {
	Port     int
	Schema   string
	Database string
}

var sourceDefaults = map[domain.SourceType]SourceDefaults{
	domain.SourcePostgres:  {Port: 5432, Schema: "public", Database: "postgres"},
	domain.SourceMySQL:     {Port: 3306},
	domain.SourceSQLServer: {Port: 1433, Schema: "dbo"},
}

// DefaultsFor returns the defaulting row for a source type. Unknown and
// streaming types get a zero row.
func DefaultsFor(t domain.SourceType) SourceDefaults {
	return sourceDefaults[t]
}

// JDBCURL builds the dialect-correct connection URL, substituting default
// port and database for missing pieces.
func JDBCURL(t domain.SourceType, host string, port int, database string) string {
	if host == "" {
		return ""
	}
	def := DefaultsFor(t)
	if port == 0 {
		port = def.Port
	}
	if database == "" {
		database = def.Database
	}
	switch t {
	case domain.SourceSQLServer:
		return fmt.Sprintf("jdbc:sqlserver://%s:%d;databaseName=%s", host, port, database)
	case domain.SourceMySQL:
		return fmt.Sprintf("jdbc:mysql://%s:%d/%s", host, port, database)
	default:
		return fmt.Sprintf("jdbc:postgresql://%s:%d/%s", host, port, database)
	}
}

// QualifyTable prefixes a bare table name with the dialect's implicit
// schema. Already-qualified names and dialects without a schema concept
// (mysql) pass through untouched.
func QualifyTable(t domain.SourceType, table string) string {
	if table == "" || strings.Contains(table, ".") {
		return table
	}
	if schema := DefaultsFor(t).Schema; schema != "" {
		return schema + "." + table
	}
	return table
}

// StoragePath derives the physical sink location: base/layer/schema/table.
func StoragePath(base, layer, schema, table string) string {
	if table == "" {
		return ""
	}
	if base == "" {
		base = DefaultBasePath
	}
	if layer == "" {
		layer = DefaultLayer
	}
	if schema == "" {
		schema = placeholderSchema
	}
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(base, "/"), layer, schema, table)
}

// splitQualified splits schema.table at the first separator; a bare name
// gets the placeholder schema.
func splitQualified(table string) (schema, name string) {
	if i := strings.Index(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return placeholderSchema, table
}
