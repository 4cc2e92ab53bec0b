package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

// Index holds one L2-normalized vector per taxonomy technique and serves
// inner-product similarity search over them. Built once, then read-only.
type Index struct {
	store   *taxonomy.Store
	encoder Encoder
	cfg     model.EmbeddingsConfig

	buildOnce sync.Once
	buildErr  error

	enabled bool
	codes   []string    // sorted; position i maps to vectors[i]
	vectors [][]float32 // L2-normalized
}

// NewIndex creates an index over the store's techniques.
// encoder may be nil: the index then relies on the cache artifact and
// degrades to disabled when none is usable.
func NewIndex(store *taxonomy.Store, encoder Encoder, cfg model.EmbeddingsConfig) *Index {
	return &Index{
		store:   store,
		encoder: encoder,
		cfg:     cfg,
	}
}

// cacheArtifact is the on-disk shape of precomputed technique vectors
type cacheArtifact struct {
	Model      string      `json:"model"`
	Dimensions int         `json:"dimensions"`
	Codes      []string    `json:"codes"`
	Vectors    [][]float32 `json:"vectors"`
}

// Build constructs the index, preferring the cache artifact over
// recomputation. Safe to call multiple times; only the first call does
// work, so concurrent cold-start requests cannot trigger duplicate
// encode runs.
func (ix *Index) Build(ctx context.Context) error {
	ix.buildOnce.Do(func() {
		ix.buildErr = ix.build(ctx)
	})
	return ix.buildErr
}

func (ix *Index) build(ctx context.Context) error {
	if !ix.cfg.Enabled || ix.store.Empty() {
		return nil // disabled, not an error
	}

	codes := ix.store.Codes()

	if ix.cfg.CachePath != "" {
		if _, err := os.Stat(ix.cfg.CachePath); err == nil {
			return ix.loadCache(codes)
		}
	}

	if ix.encoder == nil {
		fmt.Fprintf(os.Stderr, "Warning: no embedding encoder and no precomputed vectors, retrieval disabled\n")
		return nil
	}

	texts := make([]string, len(codes))
	for i, code := range codes {
		tech, _ := ix.store.Get(code)
		texts[i] = EmbeddingText(tech)
	}

	vectors, err := ix.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("encode taxonomy: %w", err)
	}
	if len(vectors) != len(codes) {
		return fmt.Errorf("encoder returned %d vectors for %d techniques", len(vectors), len(codes))
	}
	for _, v := range vectors {
		l2Normalize(v)
	}

	ix.codes = codes
	ix.vectors = vectors
	ix.enabled = true

	if ix.cfg.CachePath != "" {
		if err := ix.saveCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: saving embedding cache: %v\n", err)
		}
	}
	return nil
}

// loadCache loads precomputed vectors. A count or code mismatch against
// the current catalog is a hard error: serving a drifted index would
// map positions to the wrong techniques.
func (ix *Index) loadCache(codes []string) error {
	data, err := os.ReadFile(ix.cfg.CachePath)
	if err != nil {
		return fmt.Errorf("read embedding cache: %w", err)
	}

	var artifact cacheArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("parse embedding cache %s: %w", ix.cfg.CachePath, err)
	}

	if len(artifact.Vectors) != len(codes) {
		return fmt.Errorf("stale embedding cache: %d vectors for %d techniques (regenerate with 'dimascan embeddings build')",
			len(artifact.Vectors), len(codes))
	}
	for i, code := range artifact.Codes {
		if code != codes[i] {
			return fmt.Errorf("stale embedding cache: code %q at position %d, catalog has %q (regenerate)", code, i, codes[i])
		}
	}

	for _, v := range artifact.Vectors {
		l2Normalize(v)
	}

	ix.codes = codes
	ix.vectors = artifact.Vectors
	ix.enabled = true
	return nil
}

func (ix *Index) saveCache() error {
	artifact := cacheArtifact{
		Model:      ix.encoderName(),
		Dimensions: ix.cfg.Dimensions,
		Codes:      ix.codes,
		Vectors:    ix.vectors,
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if dir := filepath.Dir(ix.cfg.CachePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	return os.WriteFile(ix.cfg.CachePath, data, 0644)
}

func (ix *Index) encoderName() string {
	if ix.encoder != nil {
		return ix.encoder.Name()
	}
	return ix.cfg.Model
}

// Enabled reports whether similarity search is available
func (ix *Index) Enabled() bool {
	return ix.enabled
}

// Size returns the number of indexed vectors
func (ix *Index) Size() int {
	return len(ix.vectors)
}

// FindSimilar returns up to topK techniques most similar to text, ordered
// by descending similarity with 1-based ranks, filtered by minSimilarity.
// Degrades to an empty result when the index is disabled or the query
// cannot be encoded; callers treat "no hints" as a valid state.
func (ix *Index) FindSimilar(ctx context.Context, text string, topK int, minSimilarity float64) []model.SimilarityHit {
	if !ix.enabled || ix.encoder == nil || text == "" || topK <= 0 {
		return nil
	}

	query := truncate(text, ix.cfg.QueryPrefixChars)
	vectors, err := ix.encoder.Encode(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		fmt.Fprintf(os.Stderr, "Warning: query encoding failed, continuing without hints: %v\n", err)
		return nil
	}
	qv := vectors[0]
	l2Normalize(qv)

	type scored struct {
		pos int
		sim float64
	}
	scores := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = scored{pos: i, sim: clamp01(dot(qv, v))}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].sim != scores[j].sim {
			return scores[i].sim > scores[j].sim
		}
		return ix.codes[scores[i].pos] < ix.codes[scores[j].pos]
	})

	var hits []model.SimilarityHit
	for _, sc := range scores {
		if len(hits) >= topK {
			break
		}
		if sc.sim < minSimilarity {
			break // sorted descending, nothing below passes either
		}
		tech, _ := ix.store.Get(ix.codes[sc.pos])
		hits = append(hits, model.SimilarityHit{
			Code:       tech.Code,
			Name:       tech.NameFR,
			Family:     tech.Family,
			Similarity: sc.sim,
			Rank:       len(hits) + 1,
		})
	}
	return hits
}

// EmbeddingText builds the text encoded for a technique: name, semantic
// features, and example keywords concatenated for a richer vector.
func EmbeddingText(t model.Technique) string {
	return fmt.Sprintf("%s. %s. Exemples: %s", t.NameFR, t.SemanticFeatures, t.ExampleKeywords)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
