// Copyright 2026 The Goalith Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goalith.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llms:
  main:
    type: openai
    model: gpt-4o-mini
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "compact" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}

	llm := cfg.LLMs["main"]
	if llm.Timeout != 60 || llm.MaxRetries != 3 || llm.RetryBackoff != "fixed" {
		t.Errorf("llm defaults = %+v", llm)
	}
	if llm.Temperature == nil || *llm.Temperature != 0.7 {
		t.Errorf("temperature default = %v", llm.Temperature)
	}

	if cfg.Chunker.MaxChunkSize != 1500 || cfg.Chunker.OverlapSize != 200 || cfg.Chunker.MinChunkSize != 2000 {
		t.Errorf("chunker defaults = %+v", cfg.Chunker)
	}

	if cfg.Pipeline.Dedup == nil || !*cfg.Pipeline.Dedup {
		t.Error("dedup should default to enabled")
	}
	if *cfg.Pipeline.Rerank.OriginalWeight != 0.3 || *cfg.Pipeline.Rerank.LLMWeight != 0.7 {
		t.Errorf("rerank weights = %v/%v",
			*cfg.Pipeline.Rerank.OriginalWeight, *cfg.Pipeline.Rerank.LLMWeight)
	}
	if cfg.Memory.WindowSize != 100 {
		t.Errorf("memory window = %d", cfg.Memory.WindowSize)
	}
}

func TestLoadFromFileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GOALITH_KEY", "sk-secret")

	path := writeConfig(t, `
llms:
  main:
    type: openai
    model: gpt-4o-mini
    api_key: ${TEST_GOALITH_KEY}
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.LLMs["main"].APIKey != "sk-secret" {
		t.Errorf("api_key = %q, want the expanded env value", cfg.LLMs["main"].APIKey)
	}
}

func TestLoadFromFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unsupported provider type",
			content: `
llms:
  bad:
    type: anthropic
    model: claude
`,
			wantErr: "unsupported provider type",
		},
		{
			name: "missing model",
			content: `
llms:
  bad:
    type: openai
`,
			wantErr: "model is required",
		},
		{
			name: "overlap not below chunk size",
			content: `
chunker:
  max_chunk_size: 100
  overlap_size: 100
  min_chunk_size: 2000
`,
			wantErr: "overlap_size",
		},
		{
			name: "rerank without llm",
			content: `
pipeline:
  rerank:
    enabled: true
`,
			wantErr: "rerank requires an llm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadFromFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFile() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFromFile() succeeded on a missing file")
	}
}
