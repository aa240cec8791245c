package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tianputao/data-pipeline-agent/internal/agent"
	"github.com/tianputao/data-pipeline-agent/internal/http/handlers"
	"github.com/tianputao/data-pipeline-agent/internal/http/httpapi"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/nlu"
	"github.com/tianputao/data-pipeline-agent/internal/render"
	"github.com/tianputao/data-pipeline-agent/internal/storage"
)

// newTestServer wires a real service without a model, a database, or
// Databricks credentials: synthesis runs text-only and history is disabled.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	cfg := &infra.Config{DefaultUnityCatalog: "uc_tarhone"}
	synth := nlu.NewSynthesizer(log, nlu.SynthesizerOptions{Catalog: cfg.DefaultUnityCatalog})
	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	store, err := storage.NewScriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewScriptStore returned error: %v", err)
	}
	service := agent.NewService(cfg, log, synth, renderer, store)
	app := handlers.NewApp(log, service, nil)
	srv := httptest.NewServer(httpapi.NewRouter(app, log))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestPlanJobFromText(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	body := `{"natural_language": "从 postgres 地址为db.example.com 数据库名称为sales 表名为vwtable1 用户名：alice 密码：secret 抽取数据，写入表 test.out1"}`
	resp, out := postJSON(t, srv.URL+"/v1/jobs/plan", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	cfg := out["config"].(map[string]any)
	if cfg["job_name"] != "ingest_test_out1" {
		t.Fatalf("job_name = %v", cfg["job_name"])
	}
	source := cfg["source"].(map[string]any)
	if source["type"] != "postgres" {
		t.Fatalf("source type = %v", source["type"])
	}
	if !strings.Contains(source["jdbc_url"].(string), "db.example.com") {
		t.Fatalf("jdbc_url = %v", source["jdbc_url"])
	}
	script, ok := out["script"].(string)
	if !ok || !strings.Contains(script, "spark.read.format('jdbc')") {
		t.Fatalf("script missing jdbc reader: %v", out["script"])
	}
	if out["run_id"] != nil {
		t.Fatalf("plan must not carry a run id, got %v", out["run_id"])
	}
}

func TestPlanJobMissingFields(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/v1/jobs/plan", `{"natural_language": "从 postgres 表名为orders 抽取数据"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	msg := out["error"].(string)
	if !strings.HasPrefix(msg, "❌ 缺少必要信息，请提供：") {
		t.Fatalf("error = %q", msg)
	}
	fields, ok := out["missing_fields"].([]any)
	if !ok || len(fields) == 0 {
		t.Fatalf("missing_fields = %v", out["missing_fields"])
	}
}

func TestPlanJobMissingInput(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/v1/jobs/plan", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
}

func TestPlanJobInvalidBody(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, out := postJSON(t, srv.URL+"/v1/jobs/plan", `{"natural_language": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
}

func TestPlanJobFromStructuredConfig(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	body := `{"config": {
		"job_name": "ingest_orders",
		"source": {
			"type": "postgres",
			"jdbc_url": "jdbc:postgresql://db.example.com:5432/sales",
			"table": "public.orders",
			"frequency": "daily",
			"options": {"user": "alice", "password": "secret"}
		},
		"sink": {"type": "delta", "database": "test", "table": "orders", "mode": "append"}
	}}`
	resp, out := postJSON(t, srv.URL+"/v1/jobs/plan", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	cfg := out["config"].(map[string]any)
	// Absent monitoring keys keep their defaults.
	monitoring := cfg["monitoring"].(map[string]any)
	if monitoring["enable_metrics"] != true {
		t.Fatalf("monitoring defaults lost: %v", monitoring)
	}
}

func TestSubmitRenderOnlyDegradesToPlan(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	body := `{"render_only": true, "natural_language": "从 postgres 地址为db.example.com 数据库名称为sales 表名为vwtable1 用户名：alice 密码：secret 抽取数据，写入表 test.out1"}`
	resp, out := postJSON(t, srv.URL+"/v1/jobs/submit", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, out)
	}
	if out["run_id"] != nil {
		t.Fatalf("render-only submit must not start a run, got %v", out["run_id"])
	}
}

func TestListPlansWithoutDatabase(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/jobs/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRunStatusWithoutCredentials(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/runs/4242")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
