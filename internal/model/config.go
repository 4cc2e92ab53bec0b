package model

import "time"

// Config holds the complete dimascan configuration
type Config struct {
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy" json:"taxonomy"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Judge       JudgeConfig       `yaml:"judge" json:"judge"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Output      OutputConfig      `yaml:"output" json:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
}

// TaxonomyConfig locates the technique catalog and example bank
type TaxonomyConfig struct {
	MappingPath string `yaml:"mapping_path" json:"mapping_path"` // CSV catalog
	ExamplesDir string `yaml:"examples_dir" json:"examples_dir"` // per-code JSON exemplars
}

// EmbeddingsConfig controls the semantic retrieval layer
type EmbeddingsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	CachePath  string `yaml:"cache_path" json:"cache_path"` // precomputed vectors artifact

	TopK          int     `yaml:"top_k" json:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity"`

	// Fusion floors: hints at or above FusionMinSimilarity that the judge
	// missed are appended as findings; FusionSeverityFloor escalates their
	// severity from low to medium.
	FusionMinSimilarity float64 `yaml:"fusion_min_similarity" json:"fusion_min_similarity"`
	FusionSeverityFloor float64 `yaml:"fusion_severity_floor" json:"fusion_severity_floor"`

	// QueryPrefixChars bounds how much of the content is encoded for
	// similarity search. Lead content is assumed most representative.
	QueryPrefixChars int `yaml:"query_prefix_chars" json:"query_prefix_chars"`
}

// JudgeConfig controls the generative judge provider
type JudgeConfig struct {
	Provider string `yaml:"provider" json:"provider"` // "openai", "ollama", "" (disabled)
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"-" json:"-"` // from env, never persisted
	BaseURL  string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	Timeout    int `yaml:"timeout" json:"timeout"` // seconds per call
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// RequestsPerSecond rate-limits outbound judge and encoder calls
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	Language Language `yaml:"language" json:"language"` // fr or en

	// ContentPrefixChars bounds how much content is sent to the judge
	ContentPrefixChars int `yaml:"content_prefix_chars" json:"content_prefix_chars"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
}

// CacheConfig controls the layered analysis-result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`

	// MaxFindings truncates techniques and claims lists when > 0.
	// 0 means unlimited - truncation is a caller concern by default.
	MaxFindings int `yaml:"max_findings" json:"max_findings"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" json:"batch_workers"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Taxonomy: TaxonomyConfig{
			MappingPath: "docs/dima_mapping.csv",
			ExamplesDir: "data/dima_examples",
		},
		Embeddings: EmbeddingsConfig{
			Enabled:             true,
			Model:               "text-embedding-3-small",
			Dimensions:          384,
			CachePath:           "data/dima_embeddings.json",
			TopK:                5,
			MinSimilarity:       0.3,
			FusionMinSimilarity: 0.5,
			FusionSeverityFloor: 0.6,
			QueryPrefixChars:    2000,
		},
		Judge: JudgeConfig{
			Provider:           "openai",
			Model:              "gpt-4o-mini",
			Timeout:            60,
			MaxRetries:         2,
			RequestsPerSecond:  2,
			Language:           LanguageFrench,
			ContentPrefixChars: 8000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // resolved to ~/.dimascan/cache at startup
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
			MaxFindings:   0,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
	}
}
