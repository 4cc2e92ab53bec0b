package taxonomy

import (
	"fmt"

	"github.com/infoverif/dimascan/internal/model"
)

// ValidationReport collects curation issues found in a loaded catalog.
// Errors break the catalog contract; warnings indicate curation drift
// that is tolerated at runtime.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the catalog passed all hard checks
func (r *ValidationReport) OK() bool {
	return len(r.Errors) == 0
}

func (r *ValidationReport) errorf(format string, a ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func (r *ValidationReport) warnf(format string, a ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

// Validate runs curation integrity checks over the loaded catalog:
// weight sums within 2% of 1.0, weights in [0,1], required text fields
// non-empty, and the soft invariant that the primary axis carries the
// highest weight (warning only, with 0.1 slack for intentional ties).
func Validate(s *Store) *ValidationReport {
	report := &ValidationReport{}

	known := make(map[string]bool, len(model.KnownFamilies))
	for _, f := range model.KnownFamilies {
		known[f] = true
	}

	for _, code := range s.Codes() {
		t, _ := s.Get(code)

		sum := t.Weights.Sum()
		if sum < 0.98 || sum > 1.02 {
			report.errorf("%s: weights sum to %.2f (should be 1.0)", code, sum)
		}
		for axis, w := range map[string]float64{
			"weight_I_p": t.Weights.Persuasion,
			"weight_N_s": t.Weights.Speculation,
			"weight_F_f": t.Weights.Factual,
		} {
			if w < 0 || w > 1 {
				report.errorf("%s: %s=%.2f out of [0,1] range", code, axis, w)
			}
		}

		if t.NameFR == "" {
			report.errorf("%s: empty technique_name_fr", code)
		}
		if t.NameEN == "" {
			report.errorf("%s: empty technique_name_en", code)
		}
		if t.Family == "" {
			report.errorf("%s: empty dima_family", code)
		}
		if t.SemanticFeatures == "" {
			report.errorf("%s: empty semantic_features", code)
		}

		// Soft invariant: primary category matches the highest weight.
		// Violations within 0.1 of the max are tolerated silently.
		highest := t.Weights.Highest()
		if t.PrimaryAxis != highest && t.Weights.Get(t.PrimaryAxis) < t.Weights.Get(highest)-0.1 {
			report.warnf("%s: primary=%s but highest weight is %s", code, t.PrimaryAxis, highest)
		}

		if t.Family != "" && !known[t.Family] {
			report.warnf("%s: unknown family %q", code, t.Family)
		}
	}

	return report
}
