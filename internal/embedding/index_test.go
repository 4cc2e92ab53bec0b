package embedding

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

const testCatalog = `dima_code,technique_name_fr,technique_name_en,dima_family,infoverif_primary,infoverif_secondary,weight_I_p,weight_N_s,weight_F_f,semantic_features,example_keywords
TE-01,Appel à l'émotion,Appeal to emotion,Émotion,I_p,,0.6,0.2,0.2,peur colère indignation urgence émotion,"peur, urgence"
TE-58,Théorie du complot,Conspiracy theory,Diversion,N_s,,0.2,0.6,0.2,vérité cachée élite dissimulation révélation,ils nous cachent la vérité
TE-80,Statistiques trompeuses,Misleading statistics,Décontextualisation,F_f,,0.1,0.1,0.8,chiffres statistique trompeuse manipulation des nombres,90% des experts
`

func testStore(t *testing.T) *taxonomy.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.csv")
	if err := os.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	s, err := taxonomy.Load(path, "")
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return s
}

// wordEncoder is a deterministic bag-of-words encoder for tests
type wordEncoder struct {
	vocab []string
	calls int
}

func newWordEncoder() *wordEncoder {
	return &wordEncoder{vocab: []string{
		"vérité", "cache", "élite", "peur", "urgence",
		"émotion", "statistique", "chiffres", "experts", "colère",
	}}
}

func (e *wordEncoder) Name() string    { return "word-encoder" }
func (e *wordEncoder) Dimensions() int { return len(e.vocab) }

func (e *wordEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		v := make([]float32, len(e.vocab))
		for j, word := range e.vocab {
			v[j] = float32(strings.Count(lower, word))
		}
		out[i] = v
	}
	return out, nil
}

func testConfig() model.EmbeddingsConfig {
	cfg := model.DefaultConfig().Embeddings
	cfg.CachePath = ""
	return cfg
}

func builtIndex(t *testing.T) (*Index, *wordEncoder) {
	t.Helper()
	encoder := newWordEncoder()
	ix := NewIndex(testStore(t), encoder, testConfig())
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix, encoder
}

func TestIndex_Build_Deterministic(t *testing.T) {
	ix, _ := builtIndex(t)

	if !ix.Enabled() {
		t.Fatal("expected index enabled")
	}
	if ix.Size() != 3 {
		t.Errorf("expected 3 vectors, got %d", ix.Size())
	}

	// Positions follow sorted code order, stable across builds
	want := []string{"TE-01", "TE-58", "TE-80"}
	for i, code := range ix.codes {
		if code != want[i] {
			t.Errorf("position %d: got %s, want %s", i, code, want[i])
		}
	}

	ix2, _ := builtIndex(t)
	for i := range ix.codes {
		if ix.codes[i] != ix2.codes[i] {
			t.Errorf("code ordering differs between builds at %d", i)
		}
	}
}

func TestIndex_Build_OnlyOnce(t *testing.T) {
	encoder := newWordEncoder()
	ix := NewIndex(testStore(t), encoder, testConfig())

	for i := 0; i < 3; i++ {
		if err := ix.Build(context.Background()); err != nil {
			t.Fatalf("Build %d: %v", i, err)
		}
	}
	if encoder.calls != 1 {
		t.Errorf("expected a single encode run, got %d", encoder.calls)
	}
}

func TestIndex_FindSimilar_HiddenTruth(t *testing.T) {
	ix, _ := builtIndex(t)

	hits := ix.FindSimilar(context.Background(), "l'élite cache la vérité", 3, 0.3)
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}

	found := false
	for _, h := range hits {
		if h.Code == "TE-58" {
			found = true
			if h.Similarity <= 0.3 {
				t.Errorf("TE-58 similarity %v, want > 0.3", h.Similarity)
			}
			if h.Family != "Diversion" || h.Name != "Théorie du complot" {
				t.Errorf("unexpected hit metadata: %+v", h)
			}
		}
	}
	if !found {
		t.Errorf("TE-58 not in top-3 hits: %+v", hits)
	}

	// Ranks are 1-based and ascending with descending similarity
	for i, h := range hits {
		if h.Rank != i+1 {
			t.Errorf("hit %d has rank %d", i, h.Rank)
		}
		if i > 0 && hits[i-1].Similarity < h.Similarity {
			t.Errorf("hits not sorted by descending similarity: %+v", hits)
		}
	}
}

func TestIndex_FindSimilar_ThresholdMonotonic(t *testing.T) {
	ix, _ := builtIndex(t)

	query := "la peur et la vérité cachée des statistiques"
	prev := len(ix.FindSimilar(context.Background(), query, 10, 0))
	for _, min := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
		n := len(ix.FindSimilar(context.Background(), query, 10, min))
		if n > prev {
			t.Errorf("minSimilarity=%v returned %d hits, more than %d at lower threshold", min, n, prev)
		}
		prev = n
	}
}

func TestIndex_FindSimilar_TopKBound(t *testing.T) {
	ix, _ := builtIndex(t)

	for _, k := range []int{1, 2, 3, 10} {
		hits := ix.FindSimilar(context.Background(), "peur vérité statistique", k, 0)
		if len(hits) > k {
			t.Errorf("topK=%d returned %d hits", k, len(hits))
		}
	}
}

func TestIndex_Disabled(t *testing.T) {
	cfg := testConfig()

	// No encoder and no cache artifact: build succeeds but disables retrieval
	ix := NewIndex(testStore(t), nil, cfg)
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Enabled() {
		t.Error("expected disabled index without encoder")
	}
	if hits := ix.FindSimilar(context.Background(), "peur", 5, 0.3); hits != nil {
		t.Errorf("disabled index must return no hits, got %+v", hits)
	}

	// Config toggle off
	cfg.Enabled = false
	ix = NewIndex(testStore(t), newWordEncoder(), cfg)
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Enabled() {
		t.Error("expected disabled index when config disables embeddings")
	}
}

func TestIndex_CacheRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.CachePath = filepath.Join(t.TempDir(), "vectors.json")

	encoder := newWordEncoder()
	ix := NewIndex(testStore(t), encoder, cfg)
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(cfg.CachePath); err != nil {
		t.Fatalf("cache artifact not written: %v", err)
	}

	// Second index loads the artifact without encoding the catalog again
	encoder2 := newWordEncoder()
	ix2 := NewIndex(testStore(t), encoder2, cfg)
	if err := ix2.Build(context.Background()); err != nil {
		t.Fatalf("Build from cache: %v", err)
	}
	if !ix2.Enabled() {
		t.Fatal("expected enabled index from cache")
	}
	if encoder2.calls != 0 {
		t.Errorf("expected no catalog encode when cache present, got %d calls", encoder2.calls)
	}

	hits := ix2.FindSimilar(context.Background(), "l'élite cache la vérité", 3, 0.3)
	if len(hits) == 0 || hits[0].Code != "TE-58" {
		t.Errorf("unexpected hits from cached index: %+v", hits)
	}
}

func TestIndex_CacheCountMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.CachePath = filepath.Join(t.TempDir(), "vectors.json")

	// Artifact with the wrong vector count: catalog drifted since precompute
	artifact := cacheArtifact{
		Model:      "word-encoder",
		Dimensions: 10,
		Codes:      []string{"TE-01"},
		Vectors:    [][]float32{{1, 0, 0}},
	}
	data, _ := json.Marshal(artifact)
	if err := os.WriteFile(cfg.CachePath, data, 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	ix := NewIndex(testStore(t), newWordEncoder(), cfg)
	err := ix.Build(context.Background())
	if err == nil {
		t.Fatal("expected hard error for stale cache")
	}
	if !strings.Contains(err.Error(), "stale embedding cache") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIndex_QueryTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.QueryPrefixChars = 20

	ix := NewIndex(testStore(t), newWordEncoder(), cfg)
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Signal word beyond the prefix bound must not influence the search
	long := strings.Repeat("a", 30) + " vérité cachée élite"
	hits := ix.FindSimilar(context.Background(), long, 3, 0.1)
	if len(hits) != 0 {
		t.Errorf("expected no hits for truncated query, got %+v", hits)
	}
}
