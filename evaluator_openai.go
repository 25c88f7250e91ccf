package companionsdk

import (
	"context"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

// ──────────────────────────────────────────────
// OpenAI evaluator client
// ──────────────────────────────────────────────

const evaluatorRubric = `You rate how human and natural an AI companion's reply feels.
Score 1-100 total across these dimensions (max points in parentheses):
- natural_language (20): plain conversational wording, no assistant-speak
- emotional_timing (15): the reply fits the user's emotional state right now
- brevity_control (15): length matches the user's energy and message
- memory_use (10): past references feel earned, not performed
- imperfection (10): reads like a person, not polished copy
- personality_consistency (10): same voice as a consistent companion
- avoided_stock_phrases (20): no canned therapy or assistant phrases

Reply with JSON only:
{"total": <1-100>, "breakdown": {"natural_language": n, "emotional_timing": n, "brevity_control": n, "memory_use": n, "imperfection": n, "personality_consistency": n, "avoided_stock_phrases": n}, "issues": ["..."], "suggestions": ["..."]}`

// OpenAIEvaluator scores exchanges with an OpenAI chat model.
type OpenAIEvaluator struct {
	client *openai.Client
	model  string
}

// NewOpenAIEvaluator creates a client. If apiKey is empty, OPENAI_API_KEY
// is used. Model defaults to gpt-4o-mini.
func NewOpenAIEvaluator(apiKey, model string) *OpenAIEvaluator {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIEvaluator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewOpenAIEvaluatorWithConfig creates a client against a custom base URL
// (proxies, compatible endpoints).
func NewOpenAIEvaluatorWithConfig(apiKey, baseURL, model string) *OpenAIEvaluator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIEvaluator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (e *OpenAIEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) (*HumannessScore, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluatorRubric},
			{Role: openai.ChatMessageRoleUser, Content: formatEvaluationInput(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("openai evaluate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai evaluate: empty response")
	}
	return parseEvaluation(resp.Choices[0].Message.Content)
}

// formatEvaluationInput renders the exchange and its compact context for
// the evaluator model. Shared by all evaluator clients.
func formatEvaluationInput(req EvaluationRequest) string {
	return fmt.Sprintf(
		"User energy: %s\nUser mood: %s\nTurn: %d\nHour of day: %d\n\nUser message:\n%s\n\nAI reply:\n%s",
		req.Energy, req.Mood, req.TurnCount, req.Hour, req.UserMessage, req.AIResponse,
	)
}

type evaluationPayload struct {
	Total       int            `json:"total"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
}

// parseEvaluation parses the structured evaluator response. Anything that
// does not fit the rubric shape is an error, which the background pipeline
// treats as a dropped attempt.
func parseEvaluation(content string) (*HumannessScore, error) {
	content = strings.TrimSpace(content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("evaluator response parse: %w", err)
	}
	if payload.Total < 1 || payload.Total > 100 {
		return nil, fmt.Errorf("evaluator response out of range: total=%d", payload.Total)
	}
	return &HumannessScore{
		Total:       payload.Total,
		Breakdown:   payload.Breakdown,
		Issues:      payload.Issues,
		Suggestions: payload.Suggestions,
	}, nil
}
