package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestScriptStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store, err := NewScriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewScriptStore returned error: %v", err)
	}
	ctx := context.Background()

	path, err := store.WriteScript(ctx, "ingest_test_out1_ab12cd34", "print('ok')")
	if err != nil {
		t.Fatalf("WriteScript returned error: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("WriteScript returned relative path %q", path)
	}
	if !strings.HasSuffix(path, filepath.FromSlash("scripts/ingest_test_out1_ab12cd34.py")) {
		t.Fatalf("unexpected script path %q", path)
	}

	code, err := store.ReadScript(ctx, "ingest_test_out1_ab12cd34")
	if err != nil {
		t.Fatalf("ReadScript returned error: %v", err)
	}
	if code != "print('ok')" {
		t.Fatalf("ReadScript = %q", code)
	}
}

func TestScriptStoreRejectsTraversal(t *testing.T) {
	t.Parallel()
	store, err := NewScriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewScriptStore returned error: %v", err)
	}
	if _, err := store.WriteScript(context.Background(), "../../etc/passwd", "x"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestNewScriptStoreRequiresBasePath(t *testing.T) {
	t.Parallel()
	if _, err := NewScriptStore("  "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}

func TestSanitizeKey(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain", key: "scripts/a.py", want: "scripts/a.py"},
		{name: "leading slash", key: "/scripts/a.py", want: "scripts/a.py"},
		{name: "dot segments collapse", key: "scripts/./a.py", want: "scripts/a.py"},
		{name: "backslashes normalized", key: `scripts\a.py`, want: "scripts/a.py"},
		{name: "escape rejected", key: "../secret", wantErr: true},
		{name: "empty rejected", key: "  ", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q) returned error: %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
