package nlu

import (
	"strings"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

// Bilingual labels for required fields, surfaced verbatim to the end user.
const (
	labelSourceType  = "源数据库类型 (postgres/mysql/sqlserver)"
	labelSourceHost  = "源数据库主机地址 (hostname)"
	labelSourceTable = "源表名称 (必须明确指定，例如: 表名为vwtable1 或 表=schema.table)"
	labelUser        = "数据库用户名 (username)"
	labelPassword    = "数据库密码 (password)"
	labelSinkTable   = "目标表名称 (schema.table)"
	labelSinkSchema  = "目标schema名称"
)

// MissingFields computes the set of required fields that are absent from
// the draft and not resolvable from the raw text. The source table must be
// explicit: it is never inferred from the sink table, because a silent
// mismatch would ingest the wrong data.
func MissingFields(d Draft, text string) []string {
	var missing []string
	fields := Extract(text)
	creds := ExtractCredentials(text)

	if d.Source.Type == "" {
		missing = append(missing, labelSourceType)
	}
	// Connection and credential requirements apply to database sources;
	// streaming sources carry theirs inside the reader options.
	if !domain.SourceType(d.Source.Type).Streaming() {
		if d.Source.JDBCURL == "" && fields.Host == "" {
			missing = append(missing, labelSourceHost)
		}
		if d.Source.Table == "" {
			missing = append(missing, labelSourceTable)
		}
		if creds.User == "" && d.Source.Options["user"] == "" {
			missing = append(missing, labelUser)
		}
		if creds.Password == "" && d.Source.Options["password"] == "" {
			missing = append(missing, labelPassword)
		}
	}

	switch {
	case d.Sink.Database == "" && d.Sink.Table == "":
		missing = append(missing, labelSinkTable)
	case d.Sink.Table != "" && !strings.Contains(d.Sink.Table, ".") && d.Sink.Database == "":
		missing = append(missing, labelSinkSchema)
	}
	return missing
}
