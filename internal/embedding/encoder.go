package embedding

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Encoder turns texts into fixed-dimensionality vectors.
// Implementations must be deterministic for identical input.
type Encoder interface {
	// Name returns the encoder/model identifier
	Name() string

	// Dimensions returns the vector dimensionality
	Dimensions() int

	// Encode returns one vector per input text, in input order
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEncoder implements Encoder using the OpenAI embeddings API
type OpenAIEncoder struct {
	client  *openai.Client
	model   string
	dims    int
	limiter *rate.Limiter
}

// NewOpenAIEncoder creates an encoder for the given embedding model.
// requestsPerSecond <= 0 disables client-side rate limiting.
func NewOpenAIEncoder(apiKey, baseURL, model string, dims int, requestsPerSecond float64) (*OpenAIEncoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &OpenAIEncoder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		dims:    dims,
		limiter: limiter,
	}, nil
}

// Name returns the embedding model name
func (e *OpenAIEncoder) Name() string {
	return e.model
}

// Dimensions returns the configured vector dimensionality
func (e *OpenAIEncoder) Dimensions() int {
	return e.dims
}

// Encode encodes texts via the embeddings API, in input order
func (e *OpenAIEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings API: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// The API documents input order but indexes are authoritative
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
