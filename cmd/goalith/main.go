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

// Command goalith validates configuration, ingests documents into the
// vector store, and answers questions over them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"

	"github.com/goalith/goalith/pkg/config"
	"github.com/goalith/goalith/pkg/llms"
	"github.com/goalith/goalith/pkg/logger"
	"github.com/goalith/goalith/pkg/rag"
	"github.com/goalith/goalith/pkg/runner"
)

type cli struct {
	Config string `short:"c" default:"goalith.yaml" help:"Path to the configuration file."`
	Debug  bool   `help:"Enable debug logging."`

	Validate validateCmd `cmd:"" help:"Validate the configuration file."`
	Ingest   ingestCmd   `cmd:"" help:"Chunk and index the configured documents."`
	Ask      askCmd      `cmd:"" help:"Answer a question over the indexed documents."`
}

// appContext carries the loaded configuration into subcommands.
type appContext struct {
	ctx context.Context
	cfg *config.Config
}

type validateCmd struct{}

func (v *validateCmd) Run(app *appContext) error {
	fmt.Printf("configuration is valid: %d provider(s), %d document path(s)\n",
		len(app.cfg.LLMs), len(app.cfg.Documents.Paths))
	return nil
}

type ingestCmd struct {
	Paths []string `arg:"" optional:"" help:"Files or directories to ingest instead of the configured paths."`
	Watch bool     `help:"Stay running and re-ingest files when they change."`
}

func (c *ingestCmd) Run(app *appContext) error {
	paths := c.Paths
	if len(paths) == 0 {
		paths = app.cfg.Documents.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no document paths given or configured")
	}

	ingestor, store, err := buildIngestor(app.cfg)
	if err != nil {
		return err
	}

	total := 0
	for _, path := range paths {
		n, err := ingestor.IngestPath(app.ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		total += n
	}
	fmt.Printf("indexed %d chunk(s), %d embedding(s) stored\n", total, store.Count())

	if c.Watch || app.cfg.Documents.Watch {
		fmt.Println("watching for changes, press Ctrl+C to stop")
		return ingestor.Watch(app.ctx, paths)
	}
	return nil
}

type askCmd struct {
	Query     []string `arg:"" help:"The question to answer."`
	TopK      int      `default:"10" help:"How many chunks to retrieve."`
	Threshold float64  `help:"Minimum similarity score for retrieved chunks."`
	LLM       string   `help:"Provider name to answer with. Defaults to the first configured provider."`
}

func (c *askCmd) Run(app *appContext) error {
	query := strings.Join(c.Query, " ")

	providers := llms.NewRegistry()
	var answering llms.Provider
	for name, pc := range app.cfg.LLMs {
		p, err := providers.CreateFromConfig(name, pc)
		if err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
		if answering == nil || name == c.LLM {
			answering = p
		}
	}
	if answering == nil {
		return fmt.Errorf("no llm providers configured")
	}

	ingestor, store, err := buildIngestor(app.cfg)
	if err != nil {
		return err
	}
	for _, path := range app.cfg.Documents.Paths {
		if _, err := ingestor.IngestPath(app.ctx, path); err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
	}

	request := &rag.Request{Query: query, TopK: c.TopK, Threshold: c.Threshold}
	response, err := store.Query(app.ctx, request)
	if err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}

	pipeline, err := buildPipeline(app.cfg, providers)
	if err != nil {
		return err
	}
	response, _ = pipeline.Enhance(app.ctx, response)

	renderer := runner.NewTemplateRenderer()
	if err := renderer.RegisterTemplate("answer", answerTemplate); err != nil {
		return err
	}
	contexts := make([]string, 0, len(response.Results))
	for _, r := range response.Results {
		contexts = append(contexts, r.Match.EmbeddableValue())
	}

	answer, err := runner.New(answering).
		WithRenderer(renderer).
		GenerateFromTemplate(app.ctx, "answer", map[string]any{
			"query":   query,
			"context": contexts,
		})
	if err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	fmt.Println(answer)
	return nil
}

const answerTemplate = `Answer the question using only the context below.

Context:
{{range .context}}{{.}}
---
{{end}}
Question: {{.query}}`

func buildIngestor(cfg *config.Config) (*rag.Ingestor, *rag.VectorStore, error) {
	chunker, err := rag.NewChunker(cfg.Chunker)
	if err != nil {
		return nil, nil, err
	}
	store, err := rag.NewVectorStore("documents", chromem.NewEmbeddingFuncDefault())
	if err != nil {
		return nil, nil, err
	}
	return rag.NewIngestor(chunker, store), store, nil
}

// buildPipeline assembles the enhancement stages the configuration enables,
// in fixed order: dedup, compression, rerank, filter. Compression runs
// before rerank so relevance scoring sees the compressed text.
func buildPipeline(cfg *config.Config, providers *llms.Registry) (*rag.Pipeline, error) {
	var stages []rag.Enhancer
	if cfg.Pipeline.Dedup == nil || *cfg.Pipeline.Dedup {
		stages = append(stages, rag.NewDedupEnhancer())
	}
	if cfg.Pipeline.Compression.Enabled {
		p, err := providers.GetProvider(cfg.Pipeline.Compression.LLM)
		if err != nil {
			return nil, fmt.Errorf("compression: %w", err)
		}
		stages = append(stages, rag.NewCompressionEnhancer(p, cfg.Pipeline.Compression))
	}
	if cfg.Pipeline.Rerank.Enabled {
		p, err := providers.GetProvider(cfg.Pipeline.Rerank.LLM)
		if err != nil {
			return nil, fmt.Errorf("rerank: %w", err)
		}
		stages = append(stages, rag.NewRerankEnhancer(p, cfg.Pipeline.Rerank))
	}
	stages = append(stages, rag.NewFilterEnhancer())
	return rag.NewPipeline(stages...), nil
}

func main() {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("goalith"),
		kong.Description("Goal-directed agent platform with retrieval-augmented answering."),
		kong.UsageOnError(),
	)

	cfg, err := config.LoadFromFile(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	if c.Debug {
		level = slog.LevelDebug
	}
	logger.Init(level, os.Stderr, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&appContext{ctx: ctx, cfg: cfg}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
