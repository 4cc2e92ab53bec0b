package cli

import (
	"fmt"
	"os"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
	"github.com/spf13/cobra"
)

// taxonomyCmd groups taxonomy inspection commands
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect the DIMA technique taxonomy",
}

var taxonomyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show taxonomy statistics",
	Long:  `Display technique and family counts for the loaded taxonomy catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadTaxonomy()
		if err != nil {
			return err
		}
		if store.Empty() {
			return fmt.Errorf("taxonomy catalog is empty or missing")
		}

		stats := store.Stats()
		fmt.Printf("Techniques: %d\n", stats.TotalTechniques)
		fmt.Printf("Families:   %d\n", stats.TotalFamilies)
		fmt.Println()
		for _, family := range store.AllFamilies() {
			fmt.Printf("  %-22s %d\n", family, stats.TechniquesByFamily[family])
		}
		return nil
	},
}

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the taxonomy catalog",
	Long: `Check the taxonomy catalog for consistency:
- axis weights summing to 1.0
- weights within [0, 1]
- required fields present
- primary axis matching the highest weight
- known family names

Errors make the command fail; warnings are informational.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadTaxonomy()
		if err != nil {
			return err
		}
		if store.Empty() {
			return fmt.Errorf("taxonomy catalog is empty or missing")
		}

		report := taxonomy.Validate(store)
		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}

		if !report.OK() {
			return fmt.Errorf("%d error(s) in %d techniques", len(report.Errors), store.Size())
		}
		fmt.Printf("OK: %d techniques, %d warning(s)\n", store.Size(), len(report.Warnings))
		return nil
	},
}

func loadTaxonomy() (*taxonomy.Store, error) {
	cfg := model.DefaultConfig()
	if mappingPath != "" {
		cfg.Taxonomy.MappingPath = mappingPath
	}
	if examplesDir != "" {
		cfg.Taxonomy.ExamplesDir = examplesDir
	}
	return taxonomy.Load(cfg.Taxonomy.MappingPath, cfg.Taxonomy.ExamplesDir)
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.AddCommand(taxonomyStatsCmd)
	taxonomyCmd.AddCommand(taxonomyValidateCmd)

	taxonomyCmd.PersistentFlags().StringVar(&mappingPath, "taxonomy", "", "DIMA taxonomy CSV path (default from config)")
	taxonomyCmd.PersistentFlags().StringVar(&examplesDir, "examples-dir", "", "annotated examples directory (default from config)")
}
