package databricks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

const (
	scriptFolder   = "dbfs:/FileStore/ingestion-agent"
	defaultTimeout = 60 * time.Second
)

// Options configures the workspace client.
type Options struct {
	Host       string
	Token      string
	ClusterID  string
	HTTPClient *http.Client
}

// Client is a thin wrapper over the Databricks REST API for uploading
// generated scripts and submitting one-off Spark runs.
type Client struct {
	host      string
	token     string
	clusterID string
	client    *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Host) == "" || strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("databricks host and token must be configured")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		host:      strings.TrimRight(strings.TrimSpace(opts.Host), "/"),
		token:     strings.TrimSpace(opts.Token),
		clusterID: strings.TrimSpace(opts.ClusterID),
		client:    client,
	}, nil
}

// UploadScript writes the generated code to DBFS and returns its dbfs path.
func (c *Client) UploadScript(ctx context.Context, code, scriptName string) (string, error) {
	path := fmt.Sprintf("%s/%s.py", scriptFolder, scriptName)

	if err := c.post(ctx, "/api/2.0/dbfs/mkdirs", map[string]any{"path": scriptFolder}, nil); err != nil {
		return "", err
	}
	put := map[string]any{
		"path":      path,
		"contents":  base64.StdEncoding.EncodeToString([]byte(code)),
		"overwrite": true,
	}
	if err := c.post(ctx, "/api/2.0/dbfs/put", put, nil); err != nil {
		return "", err
	}
	return path, nil
}

type submitResponse struct {
	RunID int64 `json:"run_id"`
}

// SubmitPythonTask submits a one-off run executing the uploaded script on
// the configured cluster and returns the run id.
func (c *Client) SubmitPythonTask(ctx context.Context, jobName, pythonFile string, tags map[string]string) (string, error) {
	if c.clusterID == "" {
		return "", fmt.Errorf("%w: cluster id required to submit job", domain.ErrProviderFailure)
	}
	payload := map[string]any{
		"run_name": jobName,
		"tasks": []map[string]any{{
			"task_key":            "ingest",
			"existing_cluster_id": c.clusterID,
			"spark_python_task":   map[string]any{"python_file": pythonFile},
		}},
	}
	if len(tags) > 0 {
		payload["tags"] = tags
	}
	var out submitResponse
	if err := c.post(ctx, "/api/2.1/jobs/runs/submit", payload, &out); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", out.RunID), nil
}

type runStateResponse struct {
	State struct {
		LifeCycleState string `json:"life_cycle_state"`
		ResultState    string `json:"result_state"`
	} `json:"state"`
}

// RunState fetches the life-cycle state of a submitted run.
func (c *Client) RunState(ctx context.Context, runID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/2.1/jobs/runs/get?run_id=%s", c.host, runID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build runs/get request: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: runs/get: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: runs/get status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out runStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode runs/get response: %v", domain.ErrProviderFailure, err)
	}
	return out.State.LifeCycleState, nil
}

func (c *Client) post(ctx context.Context, apiPath string, payload any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("%w: encode %s request: %v", domain.ErrProviderFailure, apiPath, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+apiPath, &buf)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", domain.ErrProviderFailure, apiPath, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrProviderFailure, apiPath, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s status %d", domain.ErrProviderFailure, apiPath, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrProviderFailure, apiPath, err)
	}
	return nil
}
