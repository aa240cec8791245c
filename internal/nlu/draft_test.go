package nlu

import (
	"errors"
	"testing"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

func TestPatchFillsOnlyEmptySlots(t *testing.T) {
	t.Parallel()
	d := Draft{}
	d.Source.Type = "postgres"

	p := Patch{}
	p.Set(FieldSourceType, "mysql")
	p.Set(FieldSourceTable, "public.orders")
	p.Set(FieldSinkMode, "")

	got := d.Apply(p)
	if got.Source.Type != "postgres" {
		t.Fatalf("Source.Type = %q, want the original value to survive", got.Source.Type)
	}
	if got.Source.Table != "public.orders" {
		t.Fatalf("Source.Table = %q, want %q", got.Source.Table, "public.orders")
	}
	if got.Sink.Mode != "" {
		t.Fatalf("Sink.Mode = %q, want empty", got.Sink.Mode)
	}
	if d.Source.Table != "" {
		t.Fatal("Apply must not mutate its receiver")
	}
}

func TestPatchSetDropsEmptyValues(t *testing.T) {
	t.Parallel()
	p := Patch{}
	p.Set(FieldJobName, "")
	if len(p) != 0 {
		t.Fatalf("Patch = %v, want empty", p)
	}
}

func TestDraftFromMap(t *testing.T) {
	t.Parallel()
	m := map[string]any{
		"job_name": "ingest_orders",
		"source": map[string]any{
			"type":     "postgres",
			"jdbc_url": "jdbc:postgresql://h:5432/db",
			"table":    "public.orders",
			"options":  map[string]any{"fetchsize": float64(1000)},
		},
		"sink": map[string]any{
			"type":     "delta",
			"database": "test",
			"table":    "out1",
		},
		"transformations": map[string]any{
			"select": map[string]any{"columns": []any{"id", "amount"}},
			"aggregate": map[string]any{
				"group_by": []any{"id"},
				"metrics":  []any{"amount"},
			},
		},
	}
	d, err := DraftFromMap(m)
	if err != nil {
		t.Fatalf("DraftFromMap returned error: %v", err)
	}
	if d.JobName != "ingest_orders" {
		t.Fatalf("JobName = %q", d.JobName)
	}
	if d.Source.Options["fetchsize"] != "1000" {
		t.Fatalf("Options[fetchsize] = %q, want %q", d.Source.Options["fetchsize"], "1000")
	}
	if len(d.Transform.Select) != 2 || d.Transform.Select[0] != "id" {
		t.Fatalf("Select = %v, want columns list flattened", d.Transform.Select)
	}
	if d.Transform.Aggregate == nil || len(d.Transform.Aggregate.Metrics) != 0 {
		t.Fatalf("Aggregate.Metrics = %v, want list shape degraded to empty", d.Transform.Aggregate)
	}
}

func TestDraftFromMapMalformedSection(t *testing.T) {
	t.Parallel()
	_, err := DraftFromMap(map[string]any{"source": "not an object"})
	var malformed *MalformedDraftError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedDraftError", err)
	}
	if malformed.Section != "source" {
		t.Fatalf("Section = %q, want source", malformed.Section)
	}
}

func TestDraftFromMapNonObjectTransformationsDegrade(t *testing.T) {
	t.Parallel()
	d, err := DraftFromMap(map[string]any{"transformations": []any{"select"}})
	if err != nil {
		t.Fatalf("DraftFromMap returned error: %v", err)
	}
	if len(d.Transform.Select) != 0 || d.Transform.Aggregate != nil {
		t.Fatalf("Transform = %+v, want empty", d.Transform)
	}
}

func TestToConfigValidates(t *testing.T) {
	t.Parallel()
	d := Draft{JobName: "j"}
	d.Source = SourceDraft{Type: "postgres", Table: "public.orders"}
	d.Sink = SinkDraft{Type: "delta", Path: "/p"}
	if _, err := d.ToConfig(); !errors.Is(err, domain.ErrStructuralInvalid) {
		t.Fatalf("err = %v, want ErrStructuralInvalid for missing jdbc_url", err)
	}

	d.Source.JDBCURL = "jdbc:postgresql://h:5432/db"
	cfg, err := d.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig returned error: %v", err)
	}
	if !cfg.Monitoring.EnableLineage || !cfg.Monitoring.EnableMetrics || !cfg.Monitoring.EnableAudit {
		t.Fatalf("Monitoring = %+v, want all hooks enabled by default", cfg.Monitoring)
	}
}
