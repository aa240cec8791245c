package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScriptStore archives generated ingestion scripts on the local filesystem
// so every submitted run keeps an inspectable copy of the exact code it ran.
type ScriptStore struct {
	basePath string
}

// NewScriptStore initializes a ScriptStore rooted at basePath.
func NewScriptStore(basePath string) (*ScriptStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &ScriptStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *ScriptStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// WriteScript persists a script under scripts/<name>.py and returns the
// absolute path of the written file. Names are cleaned to prevent directory
// traversal.
func (s *ScriptStore) WriteScript(ctx context.Context, name, code string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := sanitizeKey("scripts/" + name + ".py")
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("storage: write script: %w", err)
	}
	return fullPath, nil
}

// ReadScript loads a previously archived script by name.
func (s *ScriptStore) ReadScript(ctx context.Context, name string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := sanitizeKey("scripts/" + name + ".py")
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("storage: read script: %w", err)
	}
	return string(data), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
