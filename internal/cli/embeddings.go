package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/infoverif/dimascan/internal/embedding"
	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/taxonomy"
	"github.com/spf13/cobra"
)

var (
	embCachePath  string
	embModel      string
	embDimensions int
	embTimeout    time.Duration
	embCheckQuery string
)

// embeddingsCmd groups embedding index commands
var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Manage the technique embedding index",
}

var embeddingsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Precompute technique embeddings",
	Long: `Build encodes every taxonomy technique with the embedding model and
writes the vectors to the cache artifact. Later runs load the artifact
instead of calling the embedding API.

Requires OPENAI_API_KEY.

Example:
  dimascan embeddings build
  dimascan embeddings build --cache-path data/dima_embeddings.json`,
	RunE: runEmbeddingsBuild,
}

func init() {
	rootCmd.AddCommand(embeddingsCmd)
	embeddingsCmd.AddCommand(embeddingsBuildCmd)

	embeddingsBuildCmd.Flags().StringVar(&mappingPath, "taxonomy", "", "DIMA taxonomy CSV path (default from config)")
	embeddingsBuildCmd.Flags().StringVar(&embCachePath, "cache-path", "", "embedding cache artifact path (default from config)")
	embeddingsBuildCmd.Flags().StringVar(&embModel, "model", "", "embedding model name (default from config)")
	embeddingsBuildCmd.Flags().IntVar(&embDimensions, "dimensions", 0, "embedding dimensions (default from config)")
	embeddingsBuildCmd.Flags().DurationVar(&embTimeout, "timeout", 5*time.Minute, "build timeout")
	embeddingsBuildCmd.Flags().StringVar(&embCheckQuery, "check-query", "ils nous cachent la vérité", "sanity-check query run against the built index (empty to skip)")
}

func runEmbeddingsBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), embTimeout)
	defer cancel()

	cfg := model.DefaultConfig()
	if mappingPath != "" {
		cfg.Taxonomy.MappingPath = mappingPath
	}
	if embCachePath != "" {
		cfg.Embeddings.CachePath = embCachePath
	}
	if embModel != "" {
		cfg.Embeddings.Model = embModel
	}
	if embDimensions > 0 {
		cfg.Embeddings.Dimensions = embDimensions
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	store, err := taxonomy.Load(cfg.Taxonomy.MappingPath, cfg.Taxonomy.ExamplesDir)
	if err != nil {
		return err
	}
	if store.Empty() {
		return fmt.Errorf("taxonomy catalog is empty or missing")
	}

	// Remove a stale artifact so the build re-encodes everything
	if cfg.Embeddings.CachePath != "" {
		if err := os.Remove(cfg.Embeddings.CachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove old cache artifact: %w", err)
		}
	}

	encoder, err := embedding.NewOpenAIEncoder(apiKey, "", cfg.Embeddings.Model, cfg.Embeddings.Dimensions, cfg.Judge.RequestsPerSecond)
	if err != nil {
		return err
	}

	index := embedding.NewIndex(store, encoder, cfg.Embeddings)

	fmt.Fprintf(os.Stderr, "Encoding %d techniques with %s...\n", store.Size(), cfg.Embeddings.Model)
	start := time.Now()
	if err := index.Build(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if !index.Enabled() {
		return fmt.Errorf("index build produced no vectors")
	}

	fmt.Printf("Encoded %d techniques in %v\n", index.Size(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Wrote %s\n", cfg.Embeddings.CachePath)

	if embCheckQuery != "" {
		hits := index.FindSimilar(ctx, embCheckQuery, cfg.Embeddings.TopK, cfg.Embeddings.MinSimilarity)
		fmt.Printf("\nSanity check %q:\n", embCheckQuery)
		if len(hits) == 0 {
			fmt.Println("  no technique above the similarity threshold")
		}
		for _, h := range hits {
			fmt.Printf("  %d. %s %s (%.2f)\n", h.Rank, h.Code, h.Name, h.Similarity)
		}
	}
	return nil
}
