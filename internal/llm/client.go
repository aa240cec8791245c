package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Message is a single chat turn sent to the model endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient abstracts the chat-completion transport. jsonResponse asks the
// endpoint for a JSON-object response format where supported.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message, jsonResponse bool) (string, error)
}

// ResultKind tags what the extraction step actually produced. Callers switch
// on the kind instead of poking at the payload shape.
type ResultKind int

const (
	// ResultDraft means Fields holds a structured configuration candidate.
	ResultDraft ResultKind = iota
	// ResultValidationError means the model reported missing required
	// fields; Missing holds its labels.
	ResultValidationError
	// ResultUnparseable means the response was not JSON at all. Raw keeps
	// the text for logging.
	ResultUnparseable
)

// ExtractResult is the tagged outcome of one extraction call.
type ExtractResult struct {
	Kind    ResultKind
	Fields  map[string]any
	Missing []string
	Raw     string
}

const extractionSystemPrompt = "You are a data engineering assistant for Azure Databricks ETL. " +
	"Convert user requirements into structured JSON with keys: job_name, source, transformations, sink. " +
	"\n\n**CRITICAL VALIDATION RULES:**\n" +
	"1. Source database MUST include: type (postgres/mysql/sqlserver), hostname/URL, database name, schema.table, username, password\n" +
	"2. If ANY required source info is missing, return: {\"validation_error\": \"missing_fields\", \"missing\": [list of missing fields], \"prompt\": \"ask user for these fields\"}\n" +
	"3. Recognize database types from keywords: 'pgsql'/'postgresql'->postgres, 'mysql', 'sql server'/'sqlserver', 'azure sql'->sqlserver\n" +
	"4. Extract credentials from patterns: '用户名：xxx 密码：xxx', 'username: xxx password: xxx', 'user xxx pwd xxx'\n" +
	"5. Parse hostname:port if provided, otherwise use defaults (postgres:5432, mysql:3306, sqlserver:1433)\n" +
	"6. Split schema.table format: 'public.orders' -> schema='public', table='orders'\n" +
	"7. Sink defaults: type='delta', catalog='uc_tarhone', mode='overwrite', layer='bronze'\n" +
	"8. Sink MUST have database (schema) and table. If missing, ask user.\n" +
	"9. Mode keywords: 'overwrite'/'覆盖'->overwrite, 'append'/'追加'->append\n" +
	"\n**Return valid JSON only. No markdown, no explanations.**"

// Extractor turns free-form data-movement text into a configuration
// candidate by prompting a chat model.
type Extractor struct {
	chat ChatClient
}

// NewExtractor wraps a chat transport. The transport is required; a caller
// without one skips the model step entirely.
func NewExtractor(chat ChatClient) (*Extractor, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	return &Extractor{chat: chat}, nil
}

// ExtractConfig sends the text to the model and classifies the response. A
// transport failure is returned as an error; a syntactically broken response
// is not an error but a ResultUnparseable, so the caller can degrade instead
// of failing.
func (e *Extractor) ExtractConfig(ctx context.Context, text string) (ExtractResult, error) {
	user := fmt.Sprintf("User requirement:\n%s\n\n"+
		"Extract all information. If critical fields are missing (source: hostname, database, table, username, password OR sink: schema, table), "+
		"return validation_error JSON to prompt user.", text)

	content, err := e.chat.Chat(ctx, []Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: user},
	}, true)
	if err != nil {
		return ExtractResult{}, err
	}
	return classify(content), nil
}

func classify(content string) ExtractResult {
	fragment := extractJSONFragment(content)
	if fragment == "" {
		return ExtractResult{Kind: ResultUnparseable, Raw: content}
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(fragment), &fields); err != nil {
		return ExtractResult{Kind: ResultUnparseable, Raw: content}
	}
	if _, ok := fields["validation_error"]; ok {
		return ExtractResult{Kind: ResultValidationError, Missing: stringList(fields["missing"])}
	}
	return ExtractResult{Kind: ResultDraft, Fields: fields}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
