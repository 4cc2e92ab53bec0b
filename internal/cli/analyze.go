package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/infoverif/dimascan/internal/model"
	"github.com/infoverif/dimascan/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON       string
	outMD         string
	timeout       time.Duration
	noCache       bool
	noFooter      bool
	noEmbeddings  bool
	judgeProvider string
	judgeModel    string
	language      string
	mappingPath   string
	examplesDir   string
	maxFindings   int
	httpProxy     string
	httpsProxy    string

	metaTitle       string
	metaDescription string
	metaPlatform    string

	inlineText string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze text content for manipulation techniques",
	Long: `Analyze reads text content (a file, stdin with "-", or --text) and:
- Retrieves the DIMA techniques most similar to the content
- Prompts a generative judge grounded in the full taxonomy
- Fuses judge findings with retrieval hints
- Generates transparent, explainable reports

Example:
  dimascan analyze post.txt
  dimascan analyze post.txt --json report.json --md report.md
  dimascan analyze --text "ils nous cachent la vérité"
  dimascan analyze - --provider ollama --model mistral < post.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().IntVar(&maxFindings, "max-findings", 0, "cap the number of reported techniques (0 = unlimited)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result cache (force fresh analysis)")
	analyzeCmd.Flags().BoolVar(&noEmbeddings, "no-embeddings", false, "disable semantic similarity retrieval")
	analyzeCmd.Flags().StringVar(&mappingPath, "taxonomy", "", "DIMA taxonomy CSV path (default from config)")
	analyzeCmd.Flags().StringVar(&examplesDir, "examples-dir", "", "annotated examples directory (default from config)")
	analyzeCmd.Flags().StringVar(&language, "lang", "fr", "analysis language (fr, en)")

	// Judge flags
	analyzeCmd.Flags().StringVar(&judgeProvider, "provider", "openai", "judge provider (openai, ollama)")
	analyzeCmd.Flags().StringVar(&judgeModel, "model", "gpt-4o-mini", "judge model name")
	analyzeCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	analyzeCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Input flags
	analyzeCmd.Flags().StringVar(&inlineText, "text", "", "analyze this text instead of a file")

	// Content metadata flags
	analyzeCmd.Flags().StringVar(&metaTitle, "title", "", "content title")
	analyzeCmd.Flags().StringVar(&metaDescription, "description", "", "content description")
	analyzeCmd.Flags().StringVar(&metaPlatform, "platform", "", "content platform (twitter, facebook, ...)")
}

// buildConfig resolves the shared analysis configuration from flags and
// environment
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Judge.Provider = judgeProvider
	cfg.Judge.Model = judgeModel
	cfg.Judge.Language = model.Language(language)
	cfg.Judge.HTTPProxy = httpProxy
	cfg.Judge.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = defaultCacheDir()
	cfg.Embeddings.Enabled = !noEmbeddings
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.MaxFindings = maxFindings
	if mappingPath != "" {
		cfg.Taxonomy.MappingPath = mappingPath
	}
	if examplesDir != "" {
		cfg.Taxonomy.ExamplesDir = examplesDir
	}

	switch judgeProvider {
	case "openai":
		cfg.Judge.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Judge.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Judge.BaseURL = baseURL
		}
		// Embeddings need an OpenAI key even with an Ollama judge
		cfg.Judge.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

func readContent(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read content file: %w", err)
	}
	return string(data), nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var subject, content string
	switch {
	case inlineText != "":
		subject = "inline"
		content = inlineText
	case len(args) == 1:
		subject = args[0]
		var err error
		if content, err = readContent(args[0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("provide a file argument, \"-\" for stdin, or --text")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", subject)
		fmt.Fprintf(os.Stderr, "Judge: %s/%s\n", cfg.Judge.Provider, cfg.Judge.Model)
		fmt.Fprintf(os.Stderr, "Embeddings: %v\n", cfg.Embeddings.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	meta := model.ContentMetadata{
		Title:       metaTitle,
		Description: metaDescription,
		Platform:    metaPlatform,
	}

	report, err := p.Analyze(ctx, subject, content, meta)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Mode: %s\n", report.Mode)
		fmt.Fprintf(os.Stderr, "Techniques: %d\n", len(report.Analysis.Techniques))
		fmt.Fprintf(os.Stderr, "Hints: %d\n", len(report.Analysis.EmbeddingHints))
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
