package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"Quill/internal/errs"
	"Quill/internal/memory"
)

type OpenAIClient struct {
	Client  *openai.Client
	Model   string
	BaseURL string
}

// NewOpenAIClient creates a chat client. An empty baseURL targets OpenAI.
func NewOpenAIClient(apiKey, model, baseURL string, hc *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &OpenAIClient{Client: openai.NewClientWithConfig(cfg), Model: model, BaseURL: cfg.BaseURL}
}

func (o *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	const op = "agent.complete"

	chatReq := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    chatMessages(req),
		Temperature: req.Temperature,
	}
	for _, def := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errs.New(errs.APIError, op, "No response from the model")
	}

	msg := resp.Choices[0].Message
	out := Response{
		Content: msg.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	switch {
	case len(msg.ToolCalls) > 0:
		out.Call = &FunctionCall{Name: msg.ToolCalls[0].Function.Name, Arguments: msg.ToolCalls[0].Function.Arguments}
	case msg.FunctionCall != nil:
		out.Call = &FunctionCall{Name: msg.FunctionCall.Name, Arguments: msg.FunctionCall.Arguments}
	}
	return out, nil
}

// chatMessages converts the history. Tool outputs are replayed as assistant
// messages since the history keeps no tool call IDs.
func chatMessages(req Request) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case memory.RoleSystem:
			continue
		case memory.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case memory.RoleTool:
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: fmt.Sprintf("[%s result]\n%s", m.Tool, m.Content),
			})
		default:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content})
		}
	}
	return msgs
}

func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errs.Wrap(errs.AuthenticationError, op, err, "Authentication failed, check your API key").
				With("status", apiErr.HTTPStatusCode)
		case http.StatusTooManyRequests:
			return errs.Wrap(errs.APIError, op, err, "Rate limit exceeded, try again later").
				With("status", apiErr.HTTPStatusCode)
		}
		return errs.Wrap(errs.APIError, op, err, fmt.Sprintf("Model request failed (HTTP %d)", apiErr.HTTPStatusCode)).
			With("status", apiErr.HTTPStatusCode).
			With("provider_message", apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := errs.APIError
		if reqErr.HTTPStatusCode == http.StatusUnauthorized {
			kind = errs.AuthenticationError
		}
		return errs.Wrap(kind, op, err, fmt.Sprintf("Model request failed (HTTP %d)", reqErr.HTTPStatusCode)).
			With("status", reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.NetworkError, op, err, "Model request timed out")
	}
	return errs.Wrap(errs.NetworkError, op, err, "Could not reach the model")
}
