// Package generator provides pluggable outreach message generation: an
// AI-backed implementation and a static-template fallback, selected once
// per process by configuration (cmd/server picks the AI generator when an
// OpenAI API key is set).
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/smilemakc/outreach-engine/internal/template"
)

// Generator produces outreach text (a post comment or a follow-up message)
// for a lead.
type Generator interface {
	Generate(ctx context.Context, vars template.Vars, instructions string) (string, error)
}

// OpenAIGenerator generates text via a chat completion.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *zerolog.Logger
}

// NewOpenAIGenerator creates an OpenAIGenerator using the given API key and
// model (e.g. "gpt-4o-mini").
func NewOpenAIGenerator(apiKey, model string, logger *zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Generate asks the model for a short, personalized message following
// instructions, given the lead's name/company variables.
func (g *OpenAIGenerator) Generate(ctx context.Context, vars template.Vars, instructions string) (string, error) {
	prompt, err := template.Render(instructions, vars)
	if err != nil {
		return "", fmt.Errorf("failed to render generator instructions: %w", err)
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               g.model,
		MaxCompletionTokens: 200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generator request failed: %w", err)
	}
	if g.logger != nil {
		g.logger.Debug().Dur("latency", time.Since(start)).Msg("generator completion")
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generator returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// TemplateGenerator renders a fixed message template with literal
// {{first_name}}-style substitution, used when no AI generator is
// configured.
type TemplateGenerator struct {
	fallback string
}

// NewTemplateGenerator creates a TemplateGenerator with the given template
// text (e.g. "Great to connect, {{first_name}}!").
func NewTemplateGenerator(fallback string) *TemplateGenerator {
	return &TemplateGenerator{fallback: fallback}
}

// Generate renders the configured template against vars. instructions is
// ignored; template generation has no notion of free-form instructions.
func (g *TemplateGenerator) Generate(_ context.Context, vars template.Vars, _ string) (string, error) {
	return template.Render(g.fallback, vars)
}
