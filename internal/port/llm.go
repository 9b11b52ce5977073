package port

import "context"

// LLMGateway abstracts the chat-completion provider used by the generation
// pipeline. Implementations return the raw assistant text.
type LLMGateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient turns text into a dense vector for similarity retrieval.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OCRClient extracts text from an image.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte, contentType string) (string, error)
}
