package prompt

import (
	"fmt"
	"strings"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

// PriorityCodes are the techniques illustrated with few-shot exemplars
// when the example bank has entries for them.
var PriorityCodes = []string{"TE-01", "TE-02", "TE-58", "TE-62", "TE-31"}

// maxHints bounds how many retrieval hints are surfaced to the judge
const maxHints = 5

// Composer builds judge-ready payloads from taxonomy state, optional
// retrieval hints, and the content under analysis.
type Composer struct {
	store              *taxonomy.Store
	lang               model.Language
	contentPrefixChars int
}

// Payload is a composed judge request
type Payload struct {
	Mode   model.PromptMode
	System string
	User   string
}

// NewComposer creates a composer. A nil or empty store forces legacy mode.
func NewComposer(store *taxonomy.Store, lang model.Language, contentPrefixChars int) *Composer {
	if lang != model.LanguageEnglish {
		lang = model.LanguageFrench
	}
	return &Composer{
		store:              store,
		lang:               lang,
		contentPrefixChars: contentPrefixChars,
	}
}

// Compose builds the payload: taxonomy mode when the catalog is loaded,
// hybrid when retrieval hints are present, legacy otherwise.
func (c *Composer) Compose(content string, meta model.ContentMetadata, hints []model.SimilarityHit) Payload {
	if c.store == nil || c.store.Empty() {
		return Payload{
			Mode:   model.ModeLegacy,
			System: c.systemMessage(model.ModeLegacy),
			User:   c.legacyPrompt(content, meta),
		}
	}

	mode := model.ModeTaxonomy
	if len(hints) > 0 {
		mode = model.ModeHybrid
	}

	var b strings.Builder
	b.WriteString(c.framing())
	b.WriteString("\n\n")
	b.WriteString(c.CompactTaxonomy())
	if mode == model.ModeHybrid {
		b.WriteString("\n")
		b.WriteString(c.hintsSection(hints))
	}
	if fewShot := c.fewShotSection(); fewShot != "" {
		b.WriteString("\n")
		b.WriteString(fewShot)
	}
	b.WriteString("\n")
	b.WriteString(c.analysisInstructions(true))
	b.WriteString("\n")
	b.WriteString(c.metadataSection(meta))
	b.WriteString("\n")
	b.WriteString(c.contentSection(content))

	return Payload{
		Mode:   mode,
		System: c.systemMessage(mode),
		User:   b.String(),
	}
}

// CompactTaxonomy renders the full catalog grouped by family, compact
// enough to inject into every prompt.
func (c *Composer) CompactTaxonomy() string {
	var b strings.Builder
	if c.lang == model.LanguageEnglish {
		fmt.Fprintf(&b, "COMPLETE DIMA TAXONOMY (%d manipulation techniques):\n\n", c.store.Size())
	} else {
		fmt.Fprintf(&b, "TAXONOMIE DIMA COMPLÈTE (%d techniques de manipulation):\n\n", c.store.Size())
	}

	for _, family := range c.familyOrder() {
		codes := c.store.FamilyTechniques(family)
		if len(codes) == 0 {
			continue
		}
		if c.lang == model.LanguageEnglish {
			fmt.Fprintf(&b, "FAMILY %s (%d techniques):\n", strings.ToUpper(family), len(codes))
		} else {
			fmt.Fprintf(&b, "FAMILLE %s (%d techniques):\n", strings.ToUpper(family), len(codes))
		}

		entries := make([]string, 0, len(codes))
		for _, code := range codes {
			tech, _ := c.store.Get(code)
			entries = append(entries, fmt.Sprintf("%s: %s", code, tech.Name(c.lang)))
		}
		for i := 0; i < len(entries); i += 4 {
			end := i + 4
			if end > len(entries) {
				end = len(entries)
			}
			fmt.Fprintf(&b, "  %s\n", strings.Join(entries[i:end], " | "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// familyOrder lists canonical families first, then any extra catalog
// families in their insertion order.
func (c *Composer) familyOrder() []string {
	seen := make(map[string]bool)
	var order []string
	for _, family := range model.KnownFamilies {
		if len(c.store.FamilyTechniques(family)) > 0 {
			order = append(order, family)
			seen[family] = true
		}
	}
	for _, family := range c.store.AllFamilies() {
		if !seen[family] {
			order = append(order, family)
		}
	}
	return order
}

func (c *Composer) hintsSection(hints []model.SimilarityHit) string {
	if len(hints) > maxHints {
		hints = hints[:maxHints]
	}

	var b strings.Builder
	if c.lang == model.LanguageEnglish {
		b.WriteString("SEMANTIC ANALYSIS SUGGESTIONS:\n")
		b.WriteString("Embedding similarity search pre-identified these candidate techniques.\n")
		b.WriteString("PRIORITIZE them if the content actually matches:\n")
	} else {
		b.WriteString("SUGGESTIONS DE L'ANALYSE SÉMANTIQUE:\n")
		b.WriteString("La recherche par similarité sémantique a pré-identifié ces techniques candidates.\n")
		b.WriteString("PRIORISE-les si le contenu correspond réellement:\n")
	}
	for _, h := range hints {
		fmt.Fprintf(&b, "%d. %s — %s (", h.Rank, h.Code, h.Name)
		if c.lang == model.LanguageEnglish {
			fmt.Fprintf(&b, "family: %s, similarity: %.2f)\n", h.Family, h.Similarity)
		} else {
			fmt.Fprintf(&b, "famille: %s, similarité: %.2f)\n", h.Family, h.Similarity)
		}
	}
	return b.String()
}

// fewShotSection pairs each priority technique with one curated exemplar.
// Codes without an example are skipped silently; the section disappears
// entirely when the example bank is empty.
func (c *Composer) fewShotSection() string {
	var b strings.Builder
	for _, code := range PriorityCodes {
		tech, ok := c.store.Get(code)
		if !ok {
			continue
		}
		examples := c.store.Examples(code, 1)
		if len(examples) == 0 {
			continue
		}
		ex := examples[0]

		if b.Len() == 0 {
			if c.lang == model.LanguageEnglish {
				b.WriteString("DIMA DETECTION EXAMPLES:\n\n")
			} else {
				b.WriteString("EXEMPLES DE DÉTECTION DIMA:\n\n")
			}
		}
		if c.lang == model.LanguageEnglish {
			fmt.Fprintf(&b, "Example %s — %s (family: %s):\n", code, tech.Name(c.lang), tech.Family)
			fmt.Fprintf(&b, "Content: %q\n", ex.Content)
			fmt.Fprintf(&b, "→ Detection: %s | %s | %s\n", code, tech.Family, tech.Name(c.lang))
		} else {
			fmt.Fprintf(&b, "Exemple %s — %s (Famille: %s):\n", code, tech.Name(c.lang), tech.Family)
			fmt.Fprintf(&b, "Contenu: %q\n", ex.Content)
			fmt.Fprintf(&b, "→ Détection: %s | %s | %s\n", code, tech.Family, tech.Name(c.lang))
		}
		fmt.Fprintf(&b, "→ Evidence: %q\n", ex.EvidenceSpan)
		if ex.Explanation != "" {
			fmt.Fprintf(&b, "→ Explication: %s\n", truncateRunes(ex.Explanation, 150))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Composer) analysisInstructions(withDima bool) string {
	schema := SchemaBlock(withDima)
	if c.lang == model.LanguageEnglish {
		return englishInstructions(schema, withDima)
	}
	return frenchInstructions(schema, withDima)
}

func (c *Composer) metadataSection(meta model.ContentMetadata) string {
	title := meta.Title
	if title == "" {
		title = "N/A"
	}
	description := meta.Description
	if description == "" {
		description = "N/A"
	}
	platform := meta.Platform
	if platform == "" {
		platform = "unknown"
	}
	if c.lang == model.LanguageEnglish {
		return fmt.Sprintf("METADATA:\nTitle: %s\nDescription: %s\nPlatform: %s\n", title, description, platform)
	}
	return fmt.Sprintf("MÉTADONNÉES:\nTitre: %s\nDescription: %s\nPlateforme: %s\n", title, description, platform)
}

func (c *Composer) contentSection(content string) string {
	truncated := truncateRunes(content, c.contentPrefixChars)
	if c.lang == model.LanguageEnglish {
		return fmt.Sprintf("CONTENT TO ANALYZE:\n%s\n", truncated)
	}
	return fmt.Sprintf("CONTENU À ANALYSER:\n%s\n", truncated)
}

func (c *Composer) framing() string {
	if c.lang == model.LanguageEnglish {
		return "You are an expert in media manipulation using the DIMA taxonomy (M82 Project).\n\n" +
			"IMPORTANT: cite the exact DIMA CODES (e.g. TE-58) for every detected technique.\n" +
			"The DIMA taxonomy is the academic reference for identifying manipulation techniques."
	}
	return "Tu es un expert en manipulation médiatique utilisant la taxonomie DIMA (M82 Project).\n\n" +
		"IMPORTANT: Tu dois citer les CODES DIMA exacts (ex: TE-58) pour chaque technique détectée.\n" +
		"La taxonomie DIMA est la référence académique pour identifier les techniques de manipulation."
}

func (c *Composer) systemMessage(mode model.PromptMode) string {
	if c.lang == model.LanguageEnglish {
		switch mode {
		case model.ModeHybrid:
			return "You are a media analysis expert using the DIMA taxonomy (M82 Project). You MUST answer ONLY with valid JSON, in English. Cite exact DIMA codes (e.g. TE-58) for every technique. PRIORITIZE the techniques suggested by the semantic analysis."
		case model.ModeLegacy:
			return "You are a media analysis expert. You MUST answer ONLY with valid JSON, in English. No markdown, no code blocks, no text outside the JSON."
		default:
			return "You are a media analysis expert using the DIMA taxonomy (M82 Project). You MUST answer ONLY with valid JSON, in English. Cite exact DIMA codes (e.g. TE-58) for every technique."
		}
	}
	switch mode {
	case model.ModeHybrid:
		return "Tu es un expert en analyse médiatique utilisant la taxonomie DIMA (M82 Project). Tu DOIS répondre UNIQUEMENT en JSON valide, en français. Cite les CODES DIMA exacts (ex: TE-58) pour chaque technique. PRIORISE les techniques suggérées par l'analyse sémantique."
	case model.ModeLegacy:
		return "Tu es un expert en analyse médiatique. Tu DOIS répondre UNIQUEMENT en JSON valide, en français. Pas de markdown, pas de blocs de code, pas d'explications hors du JSON."
	default:
		return "Tu es un expert en analyse médiatique utilisant la taxonomie DIMA (M82 Project). Tu DOIS répondre UNIQUEMENT en JSON valide, en français. Cite les CODES DIMA exacts (ex: TE-58) pour chaque technique."
	}
}

// legacyPrompt is the taxonomy-free fallback, kept for when the catalog
// is unavailable.
func (c *Composer) legacyPrompt(content string, meta model.ContentMetadata) string {
	var b strings.Builder
	if c.lang == model.LanguageEnglish {
		b.WriteString("You are an expert in media manipulation, propaganda analysis and misinformation detection.\n\n")
	} else {
		b.WriteString("Tu es un expert en manipulation médiatique, analyse de propagande et détection de désinformation.\n\n")
	}
	b.WriteString(c.analysisInstructions(false))
	b.WriteString("\n")
	b.WriteString(c.metadataSection(meta))
	b.WriteString("\n")
	b.WriteString(c.contentSection(content))
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
