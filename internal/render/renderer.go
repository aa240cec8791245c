package render

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

//go:embed templates/*.py.tmpl
var templateFS embed.FS

// Renderer produces PySpark ingestion scripts from validated job configs.
// Output is deterministic: map-valued sections are emitted in sorted key
// order so the same config always renders the same script.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("scripts").Funcs(funcMap).ParseFS(templateFS, "templates/*.py.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse script templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render picks the batch or streaming template based on the job's frequency.
func (r *Renderer) Render(cfg *domain.JobConfig) (string, error) {
	name := "batch_ingest.py.tmpl"
	if cfg.IsStreaming() {
		name = "stream_ingest.py.tmpl"
	}
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name, cfg); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

type pair struct {
	Key   string
	Value string
}

var funcMap = template.FuncMap{
	"pystr":      pystr,
	"pylist":     pylist,
	"pairs":      pairs,
	"aggExprs":   aggExprs,
	"sinkTarget": sinkTarget,
	"streamFmt":  streamFmt,
}

// pystr renders a Python single-quoted string literal.
func pystr(v any) string {
	s := fmt.Sprintf("%v", v)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func pylist(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = pystr(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pairs(m map[string]string) []pair {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]pair, len(keys))
	for i, k := range keys {
		out[i] = pair{Key: k, Value: m[k]}
	}
	return out
}

// aggExprs renders the aggregate metric expressions: one F.<fn> call per
// column, aliased <col>_<fn>, in sorted column order.
func aggExprs(metrics map[string]string) string {
	exprs := make([]string, 0, len(metrics))
	for _, p := range pairs(metrics) {
		fn := strings.ToLower(strings.TrimSpace(p.Value))
		if fn == "" {
			continue
		}
		exprs = append(exprs, fmt.Sprintf("F.%s(%s).alias(%s)", fn, pystr(p.Key), pystr(p.Key+"_"+fn)))
	}
	return strings.Join(exprs, ", ")
}

// sinkTarget is the fully qualified table name for saveAsTable.
func sinkTarget(sink domain.SinkSpec) string {
	parts := make([]string, 0, 3)
	if sink.Catalog != "" {
		parts = append(parts, sink.Catalog)
	}
	if sink.Database != "" {
		parts = append(parts, sink.Database)
	}
	parts = append(parts, sink.Table)
	return strings.Join(parts, ".")
}

func streamFmt(t domain.SourceType) string {
	if t == domain.SourceEventHubs {
		return "eventhubs"
	}
	return "kafka"
}
