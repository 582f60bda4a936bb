package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
vector:
  url: http://vectordb:8000
  collection: test_docs
llm:
  model: llama-3.1-70b-versatile
ingest:
  max_chunk_size: 400
  chunk_overlap: 50
auth:
  database_path: ./users.db
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug: got false")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if cfg.Vector.Collection != "test_docs" {
		t.Errorf("collection: got %s", cfg.Vector.Collection)
	}
	if cfg.LLM.Model != "llama-3.1-70b-versatile" {
		t.Errorf("model: got %s", cfg.LLM.Model)
	}
	if cfg.Ingest.MaxChunkSize != 400 || cfg.Ingest.ChunkOverlap != 50 {
		t.Errorf("chunking: got %d/%d", cfg.Ingest.MaxChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Auth.DatabasePath != filepath.Join(dir, "users.db") {
		t.Errorf("database_path not expanded: got %s", cfg.Auth.DatabasePath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Vector.Collection != "company_docs" {
		t.Errorf("collection: got %s", cfg.Vector.Collection)
	}
	if cfg.Ingest.MaxChunkSize != 800 || cfg.Ingest.ChunkOverlap != 150 {
		t.Errorf("chunking defaults: got %d/%d", cfg.Ingest.MaxChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Query.DefaultResultCount != 4 {
		t.Errorf("default result count: got %d", cfg.Query.DefaultResultCount)
	}
	want := []int{2, 4, 6, 8}
	if len(cfg.Query.AllowedResultCounts) != len(want) {
		t.Fatalf("allowed counts: got %v", cfg.Query.AllowedResultCounts)
	}
	for i, k := range want {
		if cfg.Query.AllowedResultCounts[i] != k {
			t.Errorf("allowed counts: got %v, want %v", cfg.Query.AllowedResultCounts, want)
			break
		}
	}
	if cfg.LLM.Temperature != 0.1 || cfg.LLM.MaxTokens != 1024 {
		t.Errorf("llm defaults: got %v/%d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.Auth.SessionTimeoutSecs != 1800 {
		t.Errorf("session timeout: got %d", cfg.Auth.SessionTimeoutSecs)
	}
	if cfg.Audit.ResponseMaxChars != 200 {
		t.Errorf("audit truncation: got %d", cfg.Audit.ResponseMaxChars)
	}
}
