package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Quill/internal/errs"
	"Quill/internal/memory"
	"Quill/internal/tools"
	"Quill/pkg/types"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func TestOpenAIComplete(t *testing.T) {
	body := `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "wikipedia", "arguments": "{\"query\":\"Go (programming language)\"}"}
				}]
			}
		}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 18, "total_tokens": 138}
	}`
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, body, &seen)
	defer srv.Close()

	defs, err := tools.Definitions(tools.NewDefaultRegistry(tools.Deps{}).All())
	if err != nil {
		t.Fatalf("Definitions: %v", err)
	}
	client := NewOpenAIClient("sk-test", "gpt-4o-mini", srv.URL, srv.Client())
	resp, err := client.Complete(context.Background(), Request{
		System: "be brief",
		Messages: []memory.Message{
			{Role: memory.RoleUser, Content: "tell me about Go"},
			{Role: memory.RoleTool, Tool: "calculator", Content: "4"},
		},
		Tools: defs,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Call == nil || resp.Call.Name != "wikipedia" {
		t.Fatalf("Call = %+v", resp.Call)
	}
	args, err := tools.DecodeArgs(resp.Call.Arguments)
	if err != nil || args.Query != "Go (programming language)" {
		t.Errorf("DecodeArgs = %+v, %v", args, err)
	}
	if resp.Usage.PromptTokens != 120 || resp.Usage.CompletionTokens != 18 {
		t.Errorf("Usage = %+v", resp.Usage)
	}

	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("first message = %v", first)
	}
	last, _ := msgs[2].(map[string]any)
	if last["role"] != "assistant" || last["content"] != "[calculator result]\n4" {
		t.Errorf("tool message = %v", last)
	}
	if sent, _ := seen["tools"].([]any); len(sent) != 3 {
		t.Errorf("sent %d tools, want 3", len(sent))
	}
}

func TestOpenAICompleteText(t *testing.T) {
	body := `{"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}}]}`
	srv := chatServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	resp, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL, srv.Client()).
		Complete(context.Background(), Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "Hello!" || resp.Call != nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   errs.Kind
		msg    string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`,
			kind:   errs.AuthenticationError,
			msg:    "Authentication failed, check your API key",
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error": {"message": "Rate limit reached", "type": "requests"}}`,
			kind:   errs.APIError,
			msg:    "Rate limit exceeded, try again later",
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "model not found", "type": "invalid_request_error"}}`,
			kind:   errs.APIError,
			msg:    "Model request failed (HTTP 400)",
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices": []}`,
			kind:   errs.APIError,
			msg:    "No response from the model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body, nil)
			defer srv.Close()

			_, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL, srv.Client()).
				Complete(context.Background(), Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hi"}}})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errs.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v", got, tt.kind)
			}
			if got := errs.UserMessage(err); got != "Error: "+tt.msg {
				t.Errorf("UserMessage = %q", got)
			}
			if tt.status == http.StatusBadRequest {
				var e *errs.Error
				if !errors.As(err, &e) || e.Details["provider_message"] != "model not found" {
					t.Errorf("provider message not kept for the log: %v", err)
				}
			}
		})
	}
}

func TestOpenAITimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL, srv.Client()).
		Complete(ctx, Request{Messages: []memory.Message{{Role: memory.RoleUser, Content: "hi"}}})
	if !errors.Is(err, errs.NetworkError) {
		t.Errorf("err = %v, want NetworkError", err)
	}
}

func TestNewCompleter(t *testing.T) {
	tests := []struct {
		cfg  types.LLMConfig
		want string
		fail bool
	}{
		{cfg: types.LLMConfig{Provider: "openai", Model: "gpt-4o"}, want: "https://api.openai.com/v1"},
		{cfg: types.LLMConfig{Provider: "Groq", Model: "llama3"}, want: "https://api.groq.com/openai/v1"},
		{cfg: types.LLMConfig{Provider: "custom", BaseURL: "http://localhost:9000/v1"}, want: "http://localhost:9000/v1"},
		{cfg: types.LLMConfig{Provider: "custom"}, fail: true},
	}
	for _, tt := range tests {
		c, err := NewCompleter(tt.cfg, nil)
		if tt.fail {
			if !errors.Is(err, errs.ConfigurationError) {
				t.Errorf("NewCompleter(%+v) err = %v, want ConfigurationError", tt.cfg, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewCompleter(%+v): %v", tt.cfg, err)
		}
		client, ok := c.(*OpenAIClient)
		if !ok {
			t.Fatalf("NewCompleter returned %T", c)
		}
		if client.BaseURL != tt.want {
			t.Errorf("BaseURL = %q, want %q", client.BaseURL, tt.want)
		}
	}
}

func TestProviders(t *testing.T) {
	providers := Providers()
	if providers[0] != "openai" {
		t.Errorf("first provider = %q, want openai", providers[0])
	}
	for _, p := range providers {
		if _, err := NewCompleter(types.LLMConfig{Provider: p, Model: "m"}, nil); err != nil {
			t.Errorf("NewCompleter(%q): %v", p, err)
		}
	}
}
