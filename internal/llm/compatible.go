package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// CompatibleProvider talks to OpenAI or any server exposing the same Chat
// Completions API, such as LM Studio, vLLM or llama.cpp.
type CompatibleProvider struct {
	client *openai.Client
	model  string
}

// NewCompatibleProvider creates a provider for baseURL. An empty baseURL
// targets api.openai.com.
func NewCompatibleProvider(baseURL, apiKey, model string) *CompatibleProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &CompatibleProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *CompatibleProvider) Name() string {
	return "openai"
}

func (p *CompatibleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	return &CompletionResponse{
		Content:   resp.Choices[0].Message.Content,
		Model:     resp.Model,
		Usage:     Usage{Prompt: resp.Usage.PromptTokens, Answer: resp.Usage.CompletionTokens},
		Truncated: resp.Choices[0].FinishReason == openai.FinishReasonLength,
	}, nil
}
