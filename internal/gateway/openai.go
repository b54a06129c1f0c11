package gateway

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGateway calls the OpenAI chat completion API. The model name is
// fixed at construction so every stage of a run reports the same model
// identifier in its metadata.
type OpenAIGateway struct {
	client *openai.Client
	model  string
}

func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	return &OpenAIGateway{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Model returns the configured model identifier.
func (g *OpenAIGateway) Model() string { return g.model }

func (g *OpenAIGateway) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if g.client == nil {
		return "", &UpstreamError{Op: "generate", Err: errors.New("openai client not initialized")}
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &UpstreamError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Op: "generate", Err: errors.New("empty completion")}
	}
	return resp.Choices[0].Message.Content, nil
}
