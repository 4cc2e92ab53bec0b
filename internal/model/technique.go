package model

// Language selects which technique names and prompt wording are used
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
)

// Axis identifies one of the three scoring axes a technique contributes to
type Axis string

const (
	AxisPersuasion  Axis = "I_p" // persuasive intensity -> propaganda_score
	AxisSpeculation Axis = "N_s" // speculative narrative -> conspiracy_score
	AxisFactual     Axis = "F_f" // factual reliability -> misinfo_score
)

// KnownFamilies lists the six DIMA technique families in canonical order
var KnownFamilies = []string{
	"Émotion",
	"Simplification",
	"Discrédit",
	"Diversion",
	"Décontextualisation",
	"Rhétorique",
}

// AxisWeights holds a technique's contribution split across the three axes.
// Weights are non-negative and sum to 1.0 within a 2% tolerance.
type AxisWeights struct {
	Persuasion  float64 `json:"weight_I_p"`
	Speculation float64 `json:"weight_N_s"`
	Factual     float64 `json:"weight_F_f"`
}

// Sum returns the total of the three weights
func (w AxisWeights) Sum() float64 {
	return w.Persuasion + w.Speculation + w.Factual
}

// Highest returns the axis carrying the largest weight
func (w AxisWeights) Highest() Axis {
	highest := AxisPersuasion
	max := w.Persuasion
	if w.Speculation > max {
		highest = AxisSpeculation
		max = w.Speculation
	}
	if w.Factual > max {
		highest = AxisFactual
	}
	return highest
}

// Get returns the weight for a given axis (0 for an unknown axis)
func (w AxisWeights) Get(axis Axis) float64 {
	switch axis {
	case AxisPersuasion:
		return w.Persuasion
	case AxisSpeculation:
		return w.Speculation
	case AxisFactual:
		return w.Factual
	default:
		return 0
	}
}

// Technique is one entry of the DIMA manipulation-technique taxonomy.
// Techniques are loaded once at startup and never mutated afterwards.
type Technique struct {
	Code             string      `json:"code"`    // stable identifier, e.g. "TE-58"
	NameFR           string      `json:"name_fr"` // technique name in French
	NameEN           string      `json:"name_en"` // technique name in English
	Family           string      `json:"family"`  // one of KnownFamilies
	PrimaryAxis      Axis        `json:"primary_axis"`
	SecondaryAxis    Axis        `json:"secondary_axis,omitempty"`
	Weights          AxisWeights `json:"weights"`
	SemanticFeatures string      `json:"semantic_features"` // free text, embedding input only
	ExampleKeywords  string      `json:"example_keywords"`
}

// Name returns the technique name in the requested language,
// falling back to French when no English name exists
func (t Technique) Name(lang Language) string {
	if lang == LanguageEnglish && t.NameEN != "" {
		return t.NameEN
	}
	return t.NameFR
}

// TechniqueExample is one curated exemplar from the example bank
type TechniqueExample struct {
	ID           string `json:"id"`
	Content      string `json:"content_fr"`
	EvidenceSpan string `json:"evidence_span"`
	Explanation  string `json:"annotation_notes"`
}

// TaxonomyStats summarizes a loaded taxonomy
type TaxonomyStats struct {
	TotalTechniques    int            `json:"total_techniques"`
	TotalFamilies      int            `json:"total_families"`
	TechniquesByFamily map[string]int `json:"techniques_by_family"`
}
