// Package normalize makes judge output safe to render and score: missing
// fields get defaults, scores are clamped, and the taxonomy axis
// breakdown is computed. All operations are idempotent.
package normalize

import (
	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
)

// PlaceholderName is used for findings whose name the judge omitted
const PlaceholderName = "Technique non spécifiée"

// severityFactor scales a technique's axis weights by how strongly it
// was detected.
var severityFactor = map[string]float64{
	model.SeverityHigh:   1.0,
	model.SeverityMedium: 0.6,
	model.SeverityLow:    0.3,
}

// ApplyDefaults fills fields the judge omitted so a partially-conformant
// response still renders. Valid fields are never altered.
func ApplyDefaults(result *model.AnalysisResult) {
	if result.Techniques == nil {
		result.Techniques = []model.TechniqueFinding{}
	}
	if result.Claims == nil {
		result.Claims = []model.ClaimFinding{}
	}

	for i := range result.Techniques {
		t := &result.Techniques[i]
		if t.Name == "" {
			t.Name = PlaceholderName
		}
		if _, ok := severityFactor[t.Severity]; !ok {
			t.Severity = model.SeverityMedium
		}
		if t.Source == "" {
			t.Source = model.SourceJudge
		}
	}

	for i := range result.Claims {
		c := &result.Claims[i]
		if c.Issues == nil {
			c.Issues = []string{}
		}
		switch c.Confidence {
		case model.ConfidenceSupported, model.ConfidenceUnsupported, model.ConfidenceMisleading:
		default:
			c.Confidence = model.ConfidenceUnsupported
		}
	}
}

// ClampScores forces all scores into [0, 100]
func ClampScores(result *model.AnalysisResult) {
	result.PropagandaScore = clamp(result.PropagandaScore)
	result.ConspiracyScore = clamp(result.ConspiracyScore)
	result.MisinfoScore = clamp(result.MisinfoScore)
	result.OverallRisk = clamp(result.OverallRisk)
}

// TruncateFindings caps the technique list for display. A max of zero or
// less means unlimited.
func TruncateFindings(result *model.AnalysisResult, max int) {
	if max > 0 && len(result.Techniques) > max {
		result.Techniques = result.Techniques[:max]
	}
}

// ComputeAxisBreakdown aggregates the taxonomy axis weights of findings
// with a known DIMA code, scaled by detection severity. Purely
// diagnostic: the scores come from the judge, never from this sum.
func ComputeAxisBreakdown(store *taxonomy.Store, result *model.AnalysisResult) {
	if store == nil || store.Empty() {
		return
	}

	var b model.AxisBreakdown
	for _, finding := range result.Techniques {
		tech, ok := store.Get(finding.DimaCode)
		if !ok {
			continue
		}
		factor := severityFactor[finding.Severity]
		b.Persuasion += factor * tech.Weights.Persuasion
		b.Speculation += factor * tech.Weights.Speculation
		b.Factual += factor * tech.Weights.Factual
		b.Matched++
	}

	if b.Matched > 0 {
		result.AxisBreakdown = &b
	}
}

// Finalize runs the full output-side normalization in order
func Finalize(store *taxonomy.Store, result *model.AnalysisResult, maxFindings int) {
	ApplyDefaults(result)
	ClampScores(result)
	TruncateFindings(result, maxFindings)
	ComputeAxisBreakdown(store, result)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
