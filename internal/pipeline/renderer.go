package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/infoverif/dimascan/internal/model"
)

// Renderer produces report outputs (JSON file, Markdown file, stdout
// summary)
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable Markdown report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder
	a := report.Analysis

	fmt.Fprintf(&b, "# Analyse de contenu : %s\n\n", report.Subject)
	fmt.Fprintf(&b, "- **Date** : %s\n", report.AnalyzedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "- **Mode** : %s\n", report.Mode)
	if report.Input.Platform != "" {
		fmt.Fprintf(&b, "- **Plateforme** : %s\n", report.Input.Platform)
	}
	if report.Input.Title != "" {
		fmt.Fprintf(&b, "- **Titre** : %s\n", report.Input.Title)
	}
	b.WriteString("\n## Scores\n\n")
	fmt.Fprintf(&b, "| Axe | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Propagande | %d/100 |\n", a.PropagandaScore)
	fmt.Fprintf(&b, "| Conspiration | %d/100 |\n", a.ConspiracyScore)
	fmt.Fprintf(&b, "| Désinformation | %d/100 |\n", a.MisinfoScore)
	fmt.Fprintf(&b, "| **Risque global** | **%d/100** |\n\n", a.OverallRisk)

	if a.Summary != "" {
		b.WriteString("## Résumé\n\n")
		b.WriteString(a.Summary)
		b.WriteString("\n\n")
	}

	if len(a.Techniques) > 0 {
		b.WriteString("## Techniques détectées\n\n")
		for _, t := range a.Techniques {
			label := t.Name
			if t.DimaCode != "" {
				label = fmt.Sprintf("%s — %s", t.DimaCode, t.Name)
			}
			fmt.Fprintf(&b, "### %s\n\n", label)
			if t.DimaFamily != "" {
				fmt.Fprintf(&b, "- **Famille** : %s\n", t.DimaFamily)
			}
			fmt.Fprintf(&b, "- **Sévérité** : %s\n", t.Severity)
			if t.Source == model.SourceEmbedding {
				b.WriteString("- **Source** : similarité sémantique\n")
			}
			if t.Evidence != "" {
				fmt.Fprintf(&b, "- **Extrait** : « %s »\n", t.Evidence)
			}
			if t.Explanation != "" {
				fmt.Fprintf(&b, "\n%s\n", t.Explanation)
			}
			b.WriteString("\n")
		}
	}

	if len(a.Claims) > 0 {
		b.WriteString("## Affirmations évaluées\n\n")
		for _, c := range a.Claims {
			fmt.Fprintf(&b, "- « %s » — **%s**", c.Claim, c.Confidence)
			if len(c.Issues) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(c.Issues, ", "))
			}
			b.WriteString("\n")
			if c.Reasoning != "" {
				fmt.Fprintf(&b, "  - %s\n", c.Reasoning)
			}
		}
		b.WriteString("\n")
	}

	if bd := a.AxisBreakdown; bd != nil {
		b.WriteString("## Répartition par axe (diagnostic)\n\n")
		fmt.Fprintf(&b, "| Axe | Poids cumulé |\n|---|---|\n")
		fmt.Fprintf(&b, "| Persuasion (I_p) | %.2f |\n", bd.Persuasion)
		fmt.Fprintf(&b, "| Spéculation (N_s) | %.2f |\n", bd.Speculation)
		fmt.Fprintf(&b, "| Factuel (F_f) | %.2f |\n", bd.Factual)
		fmt.Fprintf(&b, "\n%d technique(s) reliée(s) à la taxonomie.\n\n", bd.Matched)
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Rapport généré par dimascan. Les scores proviennent d'un juge génératif et sont indicatifs, pas probants.*\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary prints a short human summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	a := report.Analysis

	fmt.Printf("\n%s\n", report.Subject)
	fmt.Printf("Risque global : %d/100 (propagande %d, conspiration %d, désinformation %d)\n",
		a.OverallRisk, a.PropagandaScore, a.ConspiracyScore, a.MisinfoScore)

	if len(a.Techniques) > 0 {
		fmt.Printf("Techniques : %d détectée(s)\n", len(a.Techniques))
		for _, t := range a.Techniques {
			label := t.Name
			if t.DimaCode != "" {
				label = t.DimaCode + " " + t.Name
			}
			marker := ""
			if t.Source == model.SourceEmbedding {
				marker = " [similarité]"
			}
			fmt.Printf("  - [%s] %s%s\n", t.Severity, label, marker)
		}
	}
	if a.Summary != "" {
		fmt.Printf("\n%s\n", a.Summary)
	}
}
