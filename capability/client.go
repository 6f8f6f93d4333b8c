package capability

import "context"

// CompletionRequest is one prompt sent to a language model.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// TokenUsage is the token accounting a provider reports for one call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is the model's reply to a CompletionRequest.
type CompletionResponse struct {
	Text       string
	StopReason string
	Usage      TokenUsage
}

// LMClient is a minimal text completion client. Implementations must
// be safe for sequential reuse and must never leak credentials into
// returned errors.
type LMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}
