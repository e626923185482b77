package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderTable_Basic(t *testing.T) {
	out := renderTable([]string{"#", "Model", "Origin"}, [][]string{
		{"1", "gemini-1.5-flash", "discovered"},
		{"2", "gemini-pro"},
	})
	if !strings.Contains(out, "gemini-1.5-flash") || !strings.Contains(out, "Origin") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestModelsCommand_ExplicitOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nazoreki.yaml")
	data := "gemini:\n  key: test-key\n  model: gemini-override\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_MODEL_NAME", "")
	t.Setenv("GEMINI_API_KEY", "")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"-c", path, "models"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gemini-override") || !strings.Contains(out, "explicit") {
		t.Fatalf("expected explicit override in table, got:\n%s", out)
	}
}
