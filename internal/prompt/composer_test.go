package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

const testCatalog = `dima_code,technique_name_fr,technique_name_en,dima_family,infoverif_primary,infoverif_secondary,weight_I_p,weight_N_s,weight_F_f,semantic_features,example_keywords
TE-01,Appel à l'émotion,Appeal to emotion,Émotion,I_p,,0.6,0.2,0.2,features,keywords
TE-02,Peur / Menace,Fear appeal,Émotion,I_p,,0.7,0.2,0.1,features,keywords
TE-58,Théorie du complot,Conspiracy theory,Diversion,N_s,,0.2,0.6,0.2,features,keywords
TE-80,Statistiques trompeuses,Misleading statistics,Décontextualisation,F_f,,0.1,0.1,0.8,features,keywords
`

func testStore(t *testing.T, examplesDir string) *taxonomy.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.csv")
	if err := os.WriteFile(path, []byte(testCatalog), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	s, err := taxonomy.Load(path, examplesDir)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return s
}

func emptyStore(t *testing.T) *taxonomy.Store {
	t.Helper()
	s, err := taxonomy.Load(filepath.Join(t.TempDir(), "missing.csv"), "")
	if err != nil {
		t.Fatalf("load empty store: %v", err)
	}
	return s
}

func testHits() []model.SimilarityHit {
	return []model.SimilarityHit{
		{Code: "TE-58", Name: "Théorie du complot", Family: "Diversion", Similarity: 0.83, Rank: 1},
		{Code: "TE-01", Name: "Appel à l'émotion", Family: "Émotion", Similarity: 0.41, Rank: 2},
	}
}

func collectJSONTags(t reflect.Type, into map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := jsonTag(field)
		if tag == "" {
			continue
		}
		into[tag] = true
		elem := field.Type
		if elem.Kind() == reflect.Slice && elem.Elem().Kind() == reflect.Struct {
			collectJSONTags(elem.Elem(), into)
		}
	}
}

// The schema block shown to the judge and the typed structs the fusion
// engine parses into must describe the same fields.
func TestSchemaBlock_MatchesResultStructs(t *testing.T) {
	schema := SchemaBlock(true)

	tags := make(map[string]bool)
	collectJSONTags(reflect.TypeOf(model.AnalysisResult{}), tags)

	for tag := range tags {
		if localFields[tag] {
			if strings.Contains(schema, fmt.Sprintf("%q", tag)) {
				t.Errorf("local field %q must not be requested from the judge", tag)
			}
			continue
		}
		if !strings.Contains(schema, fmt.Sprintf("%q", tag)) {
			t.Errorf("schema block missing field %q", tag)
		}
	}
}

func TestSchemaBlock_LegacyOmitsDimaFields(t *testing.T) {
	schema := SchemaBlock(false)
	for tag := range dimaFields {
		if strings.Contains(schema, fmt.Sprintf("%q", tag)) {
			t.Errorf("legacy schema must not contain %q", tag)
		}
	}
	if !strings.Contains(schema, `"severity"`) || !strings.Contains(schema, `"claims"`) {
		t.Error("legacy schema lost non-DIMA fields")
	}
}

func TestResponseFields(t *testing.T) {
	fields := ResponseFields()
	want := []string{"propaganda_score", "conspiracy_score", "misinfo_score", "overall_risk", "techniques", "claims", "summary"}
	if len(fields) != len(want) {
		t.Fatalf("ResponseFields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: got %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestCompose_TaxonomyMode(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageFrench, 8000)

	payload := c.Compose("contenu à analyser", model.ContentMetadata{Title: "Un titre"}, nil)
	if payload.Mode != model.ModeTaxonomy {
		t.Errorf("expected taxonomy mode, got %s", payload.Mode)
	}
	if !strings.Contains(payload.User, "TAXONOMIE DIMA COMPLÈTE (4 techniques") {
		t.Error("missing compact taxonomy listing")
	}
	if !strings.Contains(payload.User, "FAMILLE ÉMOTION (2 techniques):") {
		t.Errorf("missing family section:\n%s", payload.User)
	}
	if strings.Contains(payload.User, "SUGGESTIONS DE L'ANALYSE SÉMANTIQUE") {
		t.Error("taxonomy mode must not contain a hints section")
	}
	if !strings.Contains(payload.User, "Titre: Un titre") {
		t.Error("missing metadata section")
	}
	if !strings.Contains(payload.User, "contenu à analyser") {
		t.Error("missing content section")
	}
	if !strings.Contains(payload.System, "JSON valide") {
		t.Errorf("unexpected system message: %q", payload.System)
	}
}

func TestCompose_HybridMode(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageFrench, 8000)

	payload := c.Compose("contenu", model.ContentMetadata{}, testHits())
	if payload.Mode != model.ModeHybrid {
		t.Errorf("expected hybrid mode, got %s", payload.Mode)
	}
	if !strings.Contains(payload.User, "SUGGESTIONS DE L'ANALYSE SÉMANTIQUE") {
		t.Error("missing hints section")
	}
	if !strings.Contains(payload.User, "1. TE-58 — Théorie du complot") {
		t.Errorf("missing hint line:\n%s", payload.User)
	}
	if !strings.Contains(payload.System, "PRIORISE") {
		t.Errorf("hybrid system message must ask to prioritize hints: %q", payload.System)
	}
}

func TestCompose_HintsCapped(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageFrench, 8000)

	var hits []model.SimilarityHit
	for i := 0; i < 8; i++ {
		hits = append(hits, model.SimilarityHit{
			Code: fmt.Sprintf("TE-%02d", i+1), Name: "T", Family: "Émotion",
			Similarity: 0.9 - float64(i)*0.05, Rank: i + 1,
		})
	}

	payload := c.Compose("contenu", model.ContentMetadata{}, hits)
	if strings.Contains(payload.User, "6. TE-06") {
		t.Error("hints section must be capped at 5 entries")
	}
	if !strings.Contains(payload.User, "5. TE-05") {
		t.Error("expected the fifth hint to be present")
	}
}

func TestCompose_LegacyMode(t *testing.T) {
	c := NewComposer(emptyStore(t), model.LanguageFrench, 8000)

	payload := c.Compose("contenu", model.ContentMetadata{}, nil)
	if payload.Mode != model.ModeLegacy {
		t.Errorf("expected legacy mode, got %s", payload.Mode)
	}
	if strings.Contains(payload.User, "TAXONOMIE DIMA") {
		t.Error("legacy prompt must not reference the taxonomy")
	}
	if strings.Contains(payload.User, "dima_code") {
		t.Error("legacy schema must not request DIMA codes")
	}
	if !strings.Contains(payload.User, "RÉPONDS UNIQUEMENT EN JSON VALIDE") {
		t.Error("legacy prompt lost the JSON instruction")
	}
}

func TestCompose_FewShotSection(t *testing.T) {
	examplesDir := t.TempDir()
	exampleJSON := `{"examples": [{"id": "ex1", "content_fr": "PARTAGEZ avant censure !", "evidence_span": "avant censure", "annotation_notes": "Urgence artificielle et menace de suppression"}]}`
	if err := os.WriteFile(filepath.Join(examplesDir, "TE-58_complot_examples.json"), []byte(exampleJSON), 0644); err != nil {
		t.Fatalf("write example: %v", err)
	}

	c := NewComposer(testStore(t, examplesDir), model.LanguageFrench, 8000)
	payload := c.Compose("contenu", model.ContentMetadata{}, nil)

	if !strings.Contains(payload.User, "EXEMPLES DE DÉTECTION DIMA") {
		t.Error("missing few-shot section")
	}
	if !strings.Contains(payload.User, "Exemple TE-58 — Théorie du complot") {
		t.Errorf("missing TE-58 exemplar:\n%s", payload.User)
	}
	// TE-01 has no example file: skipped silently
	if strings.Contains(payload.User, "Exemple TE-01") {
		t.Error("few-shot section must skip codes without examples")
	}
}

func TestCompose_NoExamplesNoSection(t *testing.T) {
	c := NewComposer(testStore(t, t.TempDir()), model.LanguageFrench, 8000)
	payload := c.Compose("contenu", model.ContentMetadata{}, nil)
	if strings.Contains(payload.User, "EXEMPLES DE DÉTECTION DIMA") {
		t.Error("few-shot header must be absent when the example bank is empty")
	}
}

func TestCompose_ContentTruncation(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageFrench, 50)

	long := strings.Repeat("x", 200) + "FIN-DU-CONTENU"
	payload := c.Compose(long, model.ContentMetadata{}, nil)
	if strings.Contains(payload.User, "FIN-DU-CONTENU") {
		t.Error("content must be truncated to the configured prefix")
	}
}

func TestCompose_MetadataDefaults(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageFrench, 8000)
	payload := c.Compose("contenu", model.ContentMetadata{}, nil)
	if !strings.Contains(payload.User, "Titre: N/A") || !strings.Contains(payload.User, "Plateforme: unknown") {
		t.Error("missing metadata defaults")
	}
}

func TestCompose_English(t *testing.T) {
	c := NewComposer(testStore(t, ""), model.LanguageEnglish, 8000)

	payload := c.Compose("some content", model.ContentMetadata{}, testHits())
	if !strings.Contains(payload.User, "COMPLETE DIMA TAXONOMY") {
		t.Error("missing English taxonomy header")
	}
	if !strings.Contains(payload.User, "CONTENT TO ANALYZE:") {
		t.Error("missing English content section")
	}
	if !strings.Contains(payload.User, "Conspiracy theory") {
		t.Error("expected English technique names in the listing")
	}
	if !strings.Contains(payload.System, "in English") {
		t.Errorf("unexpected system message: %q", payload.System)
	}
}
