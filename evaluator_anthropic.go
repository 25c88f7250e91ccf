package companionsdk

import (
	"context"
	"fmt"
	"os"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// ──────────────────────────────────────────────
// Anthropic evaluator client
// ──────────────────────────────────────────────

// AnthropicEvaluator scores exchanges with a Claude model.
type AnthropicEvaluator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicEvaluator creates a client. If apiKey is empty,
// ANTHROPIC_API_KEY is used. Model defaults to claude-3-5-haiku-latest.
func NewAnthropicEvaluator(apiKey, model string) *AnthropicEvaluator {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicEvaluator{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (e *AnthropicEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (*HumannessScore, error) {
	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		System:    evaluatorRubric,
		MaxTokens: 1024,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(formatEvaluationInput(req))},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic evaluate: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("anthropic evaluate: empty response")
	}
	return parseEvaluation(resp.Content[0].GetText())
}
