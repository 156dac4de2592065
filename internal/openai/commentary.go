package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Commentator struct {
	cli oa.Client
}

func NewCommentator(apiKey string) *Commentator {
	client := oa.NewClient(option.WithAPIKey(apiKey))
	return &Commentator{cli: client}
}

// Comment explains an optimization summary in plain language. The summary is produced by the
// engine; the model is told not to alter any figure in it.
func (c *Commentator) Comment(ctx context.Context, summary string) (string, error) {
	systemPrompt := `You are a portfolio analyst explaining a mean-variance optimization to a retail investor.
You receive computed figures for a minimum-risk portfolio and a target-return portfolio.

Rules:
- Never change, round differently, or invent any number; quote figures exactly as given
- Explain what the weights mean and which assets dominate each strategy
- If the target-return weights sum above 1, explain that the target needs more capital than the budget (leverage)
- Mention any warnings verbatim
- Keep it under 150 words, plain text, short bullets`

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: "gpt-4",
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(sanitizeSummary(summary)),
		},
		MaxTokens: oa.Int(400), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// sanitizeSummary caps the prompt so a very wide ticker set stays within a small request.
func sanitizeSummary(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 4000 {
		s = s[:4000]
	}
	return s
}
