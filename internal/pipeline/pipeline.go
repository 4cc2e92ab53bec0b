package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/infoverif/dimascan/internal/cache"
	"github.com/infoverif/dimascan/internal/embedding"
	"github.com/infoverif/dimascan/internal/fusion"
	"github.com/infoverif/dimascan/internal/judge"
	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/normalize"
	"github.com/infoverif/dimascan/internal/prompt"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

// excerptRunes bounds the content excerpt carried in reports
const excerptRunes = 200

// Pipeline orchestrates a complete analysis: taxonomy, retrieval, judge,
// fusion, normalization, rendering.
type Pipeline struct {
	store    *taxonomy.Store
	index    *embedding.Index
	engine   *fusion.Engine
	renderer *Renderer
	results  cache.Cache
	config   *model.Config
}

// NewPipeline wires the pipeline from configuration. Degraded components
// (missing catalog, no encoder) disable themselves with a warning; a
// misconfigured judge provider is an error.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	store, err := taxonomy.Load(cfg.Taxonomy.MappingPath, cfg.Taxonomy.ExamplesDir)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	provider, err := judge.NewProvider(judge.ConfigFromModel(cfg.Judge))
	if err != nil {
		return nil, fmt.Errorf("judge provider: %w", err)
	}

	var encoder embedding.Encoder
	if cfg.Embeddings.Enabled && cfg.Judge.APIKey != "" {
		baseURL := ""
		if strings.EqualFold(cfg.Judge.Provider, "openai") {
			baseURL = cfg.Judge.BaseURL
		}
		enc, err := embedding.NewOpenAIEncoder(cfg.Judge.APIKey, baseURL, cfg.Embeddings.Model, cfg.Embeddings.Dimensions, cfg.Judge.RequestsPerSecond)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: embedding encoder unavailable: %v\n", err)
		} else {
			encoder = enc
		}
	}
	index := embedding.NewIndex(store, encoder, cfg.Embeddings)

	composer := prompt.NewComposer(store, cfg.Judge.Language, cfg.Judge.ContentPrefixChars)
	engine := fusion.NewEngine(store, index, composer, provider, cfg.Embeddings)

	var results cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		results = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	return &Pipeline{
		store:    store,
		index:    index,
		engine:   engine,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		results:  results,
		config:   cfg,
	}, nil
}

// Store exposes the loaded taxonomy for inspection commands
func (p *Pipeline) Store() *taxonomy.Store {
	return p.store
}

// Index exposes the embedding index for inspection commands
func (p *Pipeline) Index() *embedding.Index {
	return p.index
}

// BuildIndex precomputes technique embeddings. Safe to call repeatedly.
func (p *Pipeline) BuildIndex(ctx context.Context) error {
	return p.index.Build(ctx)
}

// Analyze runs one analysis of the given content
func (p *Pipeline) Analyze(ctx context.Context, subject, content string, meta model.ContentMetadata) (*model.Report, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty content")
	}

	if err := p.index.Build(ctx); err != nil {
		return nil, fmt.Errorf("build embedding index: %w", err)
	}

	mode := p.expectedMode()
	lang := string(p.config.Judge.Language)
	key := cache.ResultKey(content, string(mode), lang)

	if p.results != nil {
		if data, found := p.results.Get(key); found {
			var report model.Report
			if err := json.Unmarshal(data, &report); err == nil {
				if p.config.Output.Verbose {
					fmt.Fprintf(os.Stderr, "Cache hit for %s\n", subject)
				}
				return &report, nil
			}
			// Corrupt cached report, re-analyze
			_ = p.results.Delete(key)
		}
	}

	result, actualMode, err := p.engine.Analyze(ctx, content, meta)
	if err != nil {
		return nil, err
	}
	normalize.Finalize(p.store, result, p.config.Output.MaxFindings)

	report := &model.Report{
		Subject:        subject,
		AnalyzedAt:     time.Now().UTC(),
		Mode:           actualMode,
		Language:       p.config.Judge.Language,
		Input:          meta,
		ContentExcerpt: excerpt(content),
		Analysis:       *result,
	}

	if p.results != nil {
		if data, err := json.Marshal(report); err == nil {
			if err := p.results.Set(key, data, p.config.Cache.TTL); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cache write failed: %v\n", err)
			}
		}
	}

	return report, nil
}

// AnalyzeFile reads a content file and analyzes it. Satisfies the batch
// worker's Analyzer interface.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return p.Analyze(ctx, path, string(data), model.ContentMetadata{})
}

// RenderReport renders the report to the requested outputs and prints a
// summary to stdout.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

// expectedMode predicts the prompt mode from component availability.
// Used only for cache keying: the actual mode may degrade from hybrid to
// taxonomy when retrieval finds nothing, which changes no semantics.
func (p *Pipeline) expectedMode() model.PromptMode {
	switch {
	case p.store.Empty():
		return model.ModeLegacy
	case p.index.Enabled():
		return model.ModeHybrid
	default:
		return model.ModeTaxonomy
	}
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return string(runes[:excerptRunes]) + "…"
}
