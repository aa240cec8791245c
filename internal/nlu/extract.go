package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

// Fields holds the best-effort candidates FieldExtractor pulls out of raw
// text. A zero value means "no candidate"; the caller decides defaulting.
// Credentials are deliberately not part of this set (see credentials.go).
type Fields struct {
	SourceType     domain.SourceType
	Host           string
	Port           int // 0 when the text carries no explicit port
	Database       string
	SourceTable    string // schema-qualified when the text names a schema
	SinkTable      string // possibly schema.table
	SinkSchema     string // explicit schema token near the sink segment
	Layer          string
	Mode           string
	BasePath       string
	Topic          string
	IncrementField string
	Frequency      string
}

// sinkKeywordRe marks the start of the sink segment: everything from the
// first target keyword on describes the sink, everything before it the
// source. This is the disambiguation device that keeps a sentence with both
// a source and a target table from matching crosswise.
var sinkKeywordRe = regexp.MustCompile(`(?i)(写入|抽取到|导入到|同步到|write\s+to|target|sink|databricks|目标|delta\s*table)`)

// splitSegments cuts the text at the first sink keyword. Without one the
// whole text is the source segment and there is no sink segment at all: a
// table mention that is not anchored to a target keyword must never be read
// as the sink.
func splitSegments(text string) (source, sink string, hasSink bool) {
	loc := sinkKeywordRe.FindStringIndex(text)
	if loc == nil {
		return text, "", false
	}
	return text[:loc[0]], text[loc[0]:], true
}

// Rule chains are ordered most-specific first; the first match for a field
// wins and partial matches from different rules are never merged.
var (
	hostRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:hostname|host|地址|主机)\s*(?:=|:|：|为|是)\s*([^\s,，。;；]+)`),
		regexp.MustCompile(`(?:地址为|主机为)\s*([^\s,，。;；]+)`),
	}
	databaseRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:database|db|数据库(?:名称)?)\s*(?:=|:|：|为|是)\s*([^\s,，。]+)`),
		regexp.MustCompile(`(?:数据库为|数据库名为|数据库名是|数据库名称为|数据库名称是)\s*([^\s,，。]+)`),
	}
	sourceTableRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:表名为|表名是|源表为|源表是|source\s+table)\s*(?:=|:|：|is|为|是)?\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)`),
		regexp.MustCompile(`表\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)`),
	}
	sourceTableSuffixRe = regexp.MustCompile(`([A-Za-z0-9_]+)\s*表`)

	// Qualified schema.table candidates near an explicit sink keyword come
	// first; a bare dotted token anywhere in the sink segment is the last
	// resort so a hostname never wins over an explicit table mention.
	sinkQualifiedRules = []*regexp.Regexp{
		regexp.MustCompile(`(?:目标表名为|目标表名是|目标表为|目标表是|写入表|写入|抽取到|导入到|同步到|(?i:write\s+to|into|target\s+table))\s*([A-Za-z0-9_]+\.[A-Za-z0-9_]+)`),
		regexp.MustCompile(`([A-Za-z0-9_]+\.[A-Za-z0-9_]+)\s*的?\s*表`),
		regexp.MustCompile(`表\s+([A-Za-z0-9_]+\.[A-Za-z0-9_]+)`),
		regexp.MustCompile(`(?:^|\s)([A-Za-z0-9_]+\.[A-Za-z0-9_]+)(?:\s|$|中|的)`),
	}
	// A labeled bare table (表名为X) stays unqualified so the validator can
	// demand the schema explicitly; only the loose X表 suffix form gets the
	// placeholder schema.
	sinkBareTableRules = []struct {
		re          *regexp.Regexp
		placeholder bool
	}{
		{regexp.MustCompile(`(?i)(?:表名为|表名是|表为|table\s*(?:name\s*)?(?:=|:|：|is|为|是))\s*([A-Za-z0-9_]+)`), false},
		{regexp.MustCompile(`([A-Za-z0-9_]+)\s*表`), true},
	}

	schemaTokenRe      = regexp.MustCompile(`(?i)(?:schema|模式)\s*(?:=|:|为)\s*([A-Za-z0-9_]+)`)
	sourceSchemaRe     = regexp.MustCompile(`(?i)(?:源|source).*?(?:schema|模式|架构)\s*(?:=|:|：|is|为|是)\s*([A-Za-z0-9_]+)`)
	basePathRe         = regexp.MustCompile(`(abfss://[^\s,，]+)`)
	layerRe            = regexp.MustCompile(`(?i)layer\s*(?:=|:|是)\s*([A-Za-z0-9_]+)`)
	topicRe            = regexp.MustCompile(`(?i)(?:topic|主题)\s*(?:=|:|：|为|是)\s*([^\s,，。]+)`)
	incrementFieldRe   = regexp.MustCompile(`(?i)(?:increment[_\s]?field|增量字段|增量列)\s*(?:=|:|：|为|是)\s*([A-Za-z0-9_]+)`)
	overwriteKeywordRe = regexp.MustCompile(`(?i)overwrite|覆盖`)
	appendKeywordRe    = regexp.MustCompile(`(?i)append|追加`)
)

// Tokens that look like a table mention but name a platform instead.
var reservedTableTokens = map[string]struct{}{
	"databricks": {},
	"delta":      {},
}

// sourceTypeKeywords maps text markers to source types, checked in order so
// "postgresql"/"pgsql" resolve before generic matches.
var sourceTypeKeywords = []struct {
	marker string
	typ    domain.SourceType
}{
	{"postgres", domain.SourcePostgres},
	{"pgsql", domain.SourcePostgres},
	{"mysql", domain.SourceMySQL},
	{"sqlserver", domain.SourceSQLServer},
	{"sql server", domain.SourceSQLServer},
	{"azure sql", domain.SourceSQLServer},
	{"kafka", domain.SourceKafka},
	{"event hub", domain.SourceEventHubs},
	{"eventhub", domain.SourceEventHubs},
	{"event_hubs", domain.SourceEventHubs},
}

var frequencyKeywords = []struct {
	marker string
	freq   domain.Frequency
}{
	{"streaming", domain.FrequencyStreaming},
	{"流式", domain.FrequencyStreaming},
	{"实时", domain.FrequencyStreaming},
	{"hourly", domain.FrequencyHourly},
	{"每小时", domain.FrequencyHourly},
	{"daily", domain.FrequencyDaily},
	{"每天", domain.FrequencyDaily},
	{"每日", domain.FrequencyDaily},
	{"once", domain.FrequencyOnce},
	{"一次性", domain.FrequencyOnce},
	{"单次", domain.FrequencyOnce},
}

// Extract runs every field rule over the text. It never fails; fields
// without a match stay zero.
func Extract(text string) Fields {
	var f Fields
	if text == "" {
		return f
	}
	sourceSeg, sinkSeg, hasSink := splitSegments(text)

	f.Host, f.Port = extractHostPort(text)
	f.Database = firstMatch(databaseRules, text)
	f.SourceTable = extractSourceTable(sourceSeg)
	if hasSink {
		f.SinkTable, f.SinkSchema = extractSinkTable(sinkSeg)
	}
	f.SourceType = detectSourceType(text)
	f.Frequency = detectFrequency(text)
	f.Topic = firstMatch([]*regexp.Regexp{topicRe}, text)
	f.IncrementField = firstMatch([]*regexp.Regexp{incrementFieldRe}, text)

	if m := basePathRe.FindStringSubmatch(text); m != nil {
		f.BasePath = strings.TrimRight(m[1], "/")
	}
	if m := layerRe.FindStringSubmatch(text); m != nil {
		f.Layer = strings.ToLower(m[1])
	}
	switch {
	case overwriteKeywordRe.MatchString(text):
		f.Mode = "overwrite"
	case appendKeywordRe.MatchString(text):
		f.Mode = "append"
	}
	return f
}

func firstMatch(rules []*regexp.Regexp, text string) string {
	for _, re := range rules {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractHostPort returns the host candidate and, when the token carries an
// all-digit host:port suffix, the explicit port.
func extractHostPort(text string) (string, int) {
	host := firstMatch(hostRules, text)
	if host == "" {
		return "", 0
	}
	if i := strings.Index(host, ":"); i >= 0 {
		if port, err := strconv.Atoi(host[i+1:]); err == nil {
			return host[:i], port
		}
		return host[:i], 0
	}
	return host, 0
}

func extractSourceTable(sourceSeg string) string {
	for _, re := range sourceTableRules {
		if m := re.FindStringSubmatch(sourceSeg); m != nil {
			if tbl := qualifySourceToken(m[1], sourceSeg); tbl != "" {
				return tbl
			}
		}
	}
	if m := sourceTableSuffixRe.FindStringSubmatch(sourceSeg); m != nil {
		return qualifySourceToken(m[1], sourceSeg)
	}
	return ""
}

func qualifySourceToken(token, sourceSeg string) string {
	if _, reserved := reservedTableTokens[strings.ToLower(token)]; reserved {
		return ""
	}
	if !strings.Contains(token, ".") {
		if schema := sourceSchemaToken(sourceSeg); schema != "" {
			return schema + "." + token
		}
	}
	return token
}

func sourceSchemaToken(sourceSeg string) string {
	if m := sourceSchemaRe.FindStringSubmatch(sourceSeg); m != nil {
		return m[1]
	}
	if m := schemaTokenRe.FindStringSubmatch(sourceSeg); m != nil {
		return m[1]
	}
	return ""
}

// extractSinkTable returns the sink table candidate (dotted where the text
// qualifies it) and any explicit schema token found near the sink segment.
func extractSinkTable(sinkSeg string) (table, schema string) {
	if m := schemaTokenRe.FindStringSubmatch(sinkSeg); m != nil {
		schema = m[1]
	}
	for _, re := range sinkQualifiedRules {
		if m := re.FindStringSubmatch(sinkSeg); m != nil {
			if tok := m[1]; looksLikeTable(tok) {
				return tok, schema
			}
		}
	}
	for _, rule := range sinkBareTableRules {
		if m := rule.re.FindStringSubmatch(sinkSeg); m != nil {
			tok := m[1]
			if _, reserved := reservedTableTokens[strings.ToLower(tok)]; reserved {
				continue
			}
			if schema != "" {
				return schema + "." + tok, schema
			}
			if rule.placeholder {
				return placeholderSchema + "." + tok, ""
			}
			return tok, ""
		}
	}
	return "", schema
}

// looksLikeTable rejects dotted tokens that are more plausibly hostnames: a
// table reference has exactly one separator and no hyphen.
func looksLikeTable(token string) bool {
	return strings.Count(token, ".") == 1 && !strings.Contains(token, "-")
}

func detectSourceType(text string) domain.SourceType {
	lower := strings.ToLower(text)
	for _, kw := range sourceTypeKeywords {
		if strings.Contains(lower, kw.marker) {
			return kw.typ
		}
	}
	return ""
}

func detectFrequency(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range frequencyKeywords {
		if strings.Contains(lower, kw.marker) {
			return string(kw.freq)
		}
	}
	return ""
}
