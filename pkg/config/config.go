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

// Package config defines the YAML configuration surface of the framework.
//
// Every config struct follows the same convention: zero values are legal,
// SetDefaults fills them in, and Validate rejects inconsistent combinations.
// Environment references of the form ${VAR} are expanded at load time.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	// Logging configures the process-wide logger.
	Logging LoggingConfig `yaml:"logging,omitempty"`

	// LLMs maps provider names to provider configurations.
	LLMs map[string]*LLMProviderConfig `yaml:"llms,omitempty"`

	// Chunker configures document chunking.
	Chunker ChunkerConfig `yaml:"chunker,omitempty"`

	// Pipeline configures the retrieval enhancement pipeline.
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`

	// Memory configures the bounded in-memory repositories.
	Memory MemoryConfig `yaml:"memory,omitempty"`

	// Documents configures document ingestion sources.
	Documents DocumentsConfig `yaml:"documents,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level,omitempty"`

	// Format is "compact" or "text". Default: compact.
	Format string `yaml:"format,omitempty"`
}

// LLMProviderConfig configures a single LLM provider.
type LLMProviderConfig struct {
	// Type selects the provider implementation: "openai" or "ollama".
	Type string `yaml:"type"`

	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers,
	// local Ollama instances).
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey authenticates against the provider. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature. Default: 0.7.
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxTokens caps the completion length. Default: 4096.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Timeout is the per-call timeout in seconds. Default: 60.
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries is the retry attempt count for transient failures.
	// Default: 3.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryDelay is the base delay between retries in seconds. Default: 1.
	RetryDelay int `yaml:"retry_delay,omitempty"`

	// RetryBackoff is "fixed" or "exponential". Default: fixed.
	RetryBackoff string `yaml:"retry_backoff,omitempty"`
}

// ChunkerConfig configures the content chunker.
type ChunkerConfig struct {
	// MaxChunkSize is the chunk size ceiling in characters. Default: 1500.
	MaxChunkSize int `yaml:"max_chunk_size,omitempty"`

	// OverlapSize is the overlap carried between successive chunks of a
	// split leaf, in characters. Default: 200.
	OverlapSize int `yaml:"overlap_size,omitempty"`

	// MinChunkSize is the threshold below which multi-leaf splitting is not
	// worthwhile. Not a floor on chunk size. Default: 2000.
	MinChunkSize int `yaml:"min_chunk_size,omitempty"`
}

// PipelineConfig configures the enhancement pipeline.
type PipelineConfig struct {
	// Dedup enables the deduplication stage. Default: true.
	Dedup *bool `yaml:"dedup,omitempty"`

	// Compression configures the LLM compression stage.
	Compression CompressionConfig `yaml:"compression,omitempty"`

	// Rerank configures the LLM reranking stage.
	Rerank RerankConfig `yaml:"rerank,omitempty"`
}

// CompressionConfig configures query-aware chunk compression.
type CompressionConfig struct {
	// Enabled turns the stage on. Default: false.
	Enabled bool `yaml:"enabled,omitempty"`

	// LLM names the provider used for compression calls.
	LLM string `yaml:"llm,omitempty"`

	// MaxChunkLength is the character threshold above which a chunk is
	// rewritten. Default: 1500.
	MaxChunkLength int `yaml:"max_chunk_length,omitempty"`

	// TargetRatio is the requested compression ratio. Default: 0.3.
	TargetRatio float64 `yaml:"target_ratio,omitempty"`

	// MaxConcurrency bounds concurrent compression calls. Default: 4.
	MaxConcurrency int `yaml:"max_concurrency,omitempty"`
}

// RerankConfig configures LLM reranking.
type RerankConfig struct {
	// Enabled turns the stage on. Default: false.
	Enabled bool `yaml:"enabled,omitempty"`

	// LLM names the provider used for relevance scoring.
	LLM string `yaml:"llm,omitempty"`

	// SkipThreshold skips reranking entirely when the result count is at or
	// below it. Default: 3.
	SkipThreshold int `yaml:"skip_threshold,omitempty"`

	// TopN is how many leading results are scored. Default: 10.
	TopN int `yaml:"top_n,omitempty"`

	// OriginalWeight and LLMWeight blend the similarity score with the LLM
	// relevance score. Defaults: 0.3 and 0.7.
	OriginalWeight *float64 `yaml:"original_weight,omitempty"`
	LLMWeight      *float64 `yaml:"llm_weight,omitempty"`
}

// MemoryConfig configures bounded in-memory repositories.
type MemoryConfig struct {
	// WindowSize is the maximum number of retained entries. Default: 100.
	WindowSize int `yaml:"window_size,omitempty"`
}

// DocumentsConfig configures document ingestion.
type DocumentsConfig struct {
	// Paths are files or directories to ingest.
	Paths []string `yaml:"paths,omitempty"`

	// Watch re-ingests files when they change on disk.
	Watch bool `yaml:"watch,omitempty"`
}

// SetDefaults applies defaults recursively.
func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "compact"
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}
	c.Chunker.SetDefaults()
	c.Pipeline.SetDefaults()
	if c.Memory.WindowSize <= 0 {
		c.Memory.WindowSize = 100
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}
	if err := c.Chunker.Validate(); err != nil {
		return fmt.Errorf("chunker: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// SetDefaults applies provider defaults.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Temperature == nil {
		t := 0.7
		c.Temperature = &t
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout <= 0 {
		c.Timeout = 60
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 1
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "fixed"
	}
}

// Validate checks the provider configuration.
func (c *LLMProviderConfig) Validate() error {
	switch c.Type {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported provider type %q", c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	switch c.RetryBackoff {
	case "", "fixed", "exponential":
	default:
		return fmt.Errorf("invalid retry_backoff %q", c.RetryBackoff)
	}
	return nil
}

// SetDefaults applies chunker defaults.
func (c *ChunkerConfig) SetDefaults() {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = 1500
	}
	if c.OverlapSize == 0 {
		c.OverlapSize = 200
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = 2000
	}
}

// Validate checks the chunker configuration.
func (c *ChunkerConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max_chunk_size must be positive, got %d", c.MaxChunkSize)
	}
	if c.OverlapSize < 0 {
		return fmt.Errorf("overlap_size must be non-negative, got %d", c.OverlapSize)
	}
	if c.OverlapSize >= c.MaxChunkSize {
		return fmt.Errorf("overlap_size (%d) must be less than max_chunk_size (%d)", c.OverlapSize, c.MaxChunkSize)
	}
	if c.MinChunkSize < c.MaxChunkSize {
		return fmt.Errorf("min_chunk_size (%d) must be at least max_chunk_size (%d)", c.MinChunkSize, c.MaxChunkSize)
	}
	return nil
}

// SetDefaults applies pipeline defaults.
func (c *PipelineConfig) SetDefaults() {
	if c.Dedup == nil {
		enabled := true
		c.Dedup = &enabled
	}
	if c.Compression.MaxChunkLength <= 0 {
		c.Compression.MaxChunkLength = 1500
	}
	if c.Compression.TargetRatio <= 0 {
		c.Compression.TargetRatio = 0.3
	}
	if c.Compression.MaxConcurrency <= 0 {
		c.Compression.MaxConcurrency = 4
	}
	if c.Rerank.SkipThreshold <= 0 {
		c.Rerank.SkipThreshold = 3
	}
	if c.Rerank.TopN <= 0 {
		c.Rerank.TopN = 10
	}
	if c.Rerank.OriginalWeight == nil {
		w := 0.3
		c.Rerank.OriginalWeight = &w
	}
	if c.Rerank.LLMWeight == nil {
		w := 0.7
		c.Rerank.LLMWeight = &w
	}
}

// Validate checks the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	if c.Compression.Enabled && c.Compression.LLM == "" {
		return fmt.Errorf("compression requires an llm")
	}
	if c.Rerank.Enabled && c.Rerank.LLM == "" {
		return fmt.Errorf("rerank requires an llm")
	}
	if c.Compression.TargetRatio < 0 || c.Compression.TargetRatio > 1 {
		return fmt.Errorf("compression target_ratio must be in (0,1], got %f", c.Compression.TargetRatio)
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with environment values. Unset
// variables expand to the empty string.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// LoadFromFile reads, expands, defaults, and validates a config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
