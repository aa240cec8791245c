package nlu

import (
	"fmt"
	"strings"
)

// User-facing strings. The exact shape is a UI contract shared with the
// chat and web front ends; do not reword.
const (
	missingFieldsHeader  = "❌ 缺少必要信息，请提供：\n"
	missingFieldsExample = "\n\n💡 示例：从 postgres 地址为xxx 数据库名称为xxx 表名为vwtable1 用户名：xxx 密码：xxx 抽取数据，写入表 test.table1"
	missingFieldsRetry   = "\n\n请重新输入包含以上信息的完整描述。"
)

// MissingFieldsError enumerates the required fields the validator (or the
// external extraction step) found absent. Field labels are bilingual
// human-readable strings surfaced verbatim to the end user. It is always
// recoverable by resubmitting with more information and never retried
// automatically.
type MissingFieldsError struct {
	Fields []string
	// FromModel marks the list as reported by the external extraction step
	// rather than computed by the validator; the footer differs.
	FromModel bool
}

func (e *MissingFieldsError) Error() string {
	var b strings.Builder
	b.WriteString(missingFieldsHeader)
	for i, field := range e.Fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  • ")
		b.WriteString(field)
	}
	if e.FromModel {
		b.WriteString(missingFieldsRetry)
	} else {
		b.WriteString(missingFieldsExample)
	}
	return b.String()
}

// MalformedDraftError marks an external extraction result whose shape is
// unusable (non-object section, explicit failure marker). It triggers the
// heuristic fallback before anything is surfaced to the user.
type MalformedDraftError struct {
	Section string
	Reason  string
}

func (e *MalformedDraftError) Error() string {
	return fmt.Sprintf("external draft is not usable: %s section: %s", e.Section, e.Reason)
}
