package fusion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/infoverif/dimascan/internal/judge"
	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/normalize"
	"github.com/infoverif/dimascan/internal/prompt"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

// embeddingEvidence marks findings synthesized from retrieval hints
const embeddingEvidence = "Détecté via similarité sémantique"

// Retriever maps free text to the most semantically related taxonomy
// entries. A disabled retriever returns no hits, never an error.
type Retriever interface {
	Enabled() bool
	FindSimilar(ctx context.Context, text string, topK int, minSimilarity float64) []model.SimilarityHit
}

// Engine runs the full per-request pipeline: retrieval, prompt
// composition, judge invocation, response validation, and fusion of the
// two detection signals.
type Engine struct {
	store     *taxonomy.Store
	retriever Retriever
	composer  *prompt.Composer
	provider  judge.Provider
	cfg       model.EmbeddingsConfig
}

// NewEngine creates a fusion engine. retriever may be nil (retrieval
// disabled); provider must not be nil.
func NewEngine(store *taxonomy.Store, retriever Retriever, composer *prompt.Composer, provider judge.Provider, cfg model.EmbeddingsConfig) *Engine {
	return &Engine{
		store:     store,
		retriever: retriever,
		composer:  composer,
		provider:  provider,
		cfg:       cfg,
	}
}

// Analyze runs one analysis request. The stages are strictly sequential:
// each one's output feeds the next.
func (e *Engine) Analyze(ctx context.Context, content string, meta model.ContentMetadata) (*model.AnalysisResult, model.PromptMode, error) {
	if e.provider == nil {
		return nil, "", fmt.Errorf("no judge provider configured")
	}

	// 1. Semantic similarity search (empty on any degradation)
	var hints []model.SimilarityHit
	if e.retriever != nil && e.retriever.Enabled() {
		hints = e.retriever.FindSimilar(ctx, content, e.cfg.TopK, e.cfg.MinSimilarity)
	}

	// 2. Prompt composition
	payload := e.composer.Compose(content, meta, hints)

	// 3. Judge invocation
	raw, err := e.provider.Complete(ctx, payload.System, payload.User)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, payload.Mode, &TimeoutError{Stage: "judge call", Err: err}
		}
		return nil, payload.Mode, &JudgeUnavailableError{Err: err}
	}

	// 4. Defensive extraction and parse
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return nil, payload.Mode, err
	}
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, payload.Mode, &ParseError{
			Reason: err.Error(),
			Raw:    rawExcerpt(raw),
		}
	}

	// 5. Missing-field defaulting (availability over strict rejection)
	normalize.ApplyDefaults(&result)
	e.linkCodes(&result)

	// 6. Fuse hints the judge did not independently surface
	e.fuse(&result, hints)

	// 7. Raw retrieval output travels with the result for transparency
	if len(hints) > 0 {
		result.EmbeddingHints = hints
	}

	return &result, payload.Mode, nil
}

// linkCodes back-fills taxonomy linkage for judge findings that named a
// technique without citing its code.
func (e *Engine) linkCodes(result *model.AnalysisResult) {
	if e.store == nil || e.store.Empty() {
		return
	}
	for i := range result.Techniques {
		tech := &result.Techniques[i]
		if tech.DimaCode != "" {
			continue
		}
		code, ok := e.store.CodeForName(tech.Name)
		if !ok {
			continue
		}
		tech.DimaCode = code
		if t, ok := e.store.Get(code); ok && tech.DimaFamily == "" {
			tech.DimaFamily = t.Family
		}
	}
}

// fuse appends a finding for each hint the judge missed, above a
// conservative similarity floor. The judge under-reports techniques it
// was not prompted toward; retrieval is the recall safety net.
func (e *Engine) fuse(result *model.AnalysisResult, hints []model.SimilarityHit) {
	if len(hints) == 0 {
		return
	}

	minSim := e.cfg.FusionMinSimilarity
	if minSim <= 0 {
		minSim = 0.5
	}
	severityFloor := e.cfg.FusionSeverityFloor
	if severityFloor <= 0 {
		severityFloor = 0.6
	}

	seen := make(map[string]bool, len(result.Techniques))
	for _, t := range result.Techniques {
		if t.DimaCode != "" {
			seen[t.DimaCode] = true
		}
	}

	for _, hit := range hints {
		if hit.Similarity < minSim || seen[hit.Code] {
			continue
		}
		severity := model.SeverityLow
		if hit.Similarity >= severityFloor {
			severity = model.SeverityMedium
		}
		result.Techniques = append(result.Techniques, model.TechniqueFinding{
			DimaCode:    hit.Code,
			DimaFamily:  hit.Family,
			Name:        hit.Name,
			Evidence:    embeddingEvidence,
			Severity:    severity,
			Explanation: fmt.Sprintf("Technique suggérée par similarité sémantique (%.2f) mais non relevée par le juge.", hit.Similarity),
			Source:      model.SourceEmbedding,
		})
		seen[hit.Code] = true
	}
}
