// Package embeddings turns text into embedding vectors through an external provider.
package embeddings

import "context"

// Client generates an embedding vector for a single text. Providers accept one text per call.
// Implemented by provider-specific clients (Google Gemini, OpenAI, generic HTTP) and MockClient.
type Client interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}
