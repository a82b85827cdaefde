package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNew(t *testing.T) {
	if _, err := New(Config{APIKey: "sk"}, nil); err == nil {
		t.Error("New() should reject nil logger")
	}
	if _, err := New(Config{}, testLogger()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New() error = %v, want ErrMissingAPIKey", err)
	}

	p, err := New(Config{APIKey: "sk"}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.config.Model != DefaultModel {
		t.Errorf("default model = %q, want %q", p.config.Model, DefaultModel)
	}
}

func TestIsReasoningModel(t *testing.T) {
	tests := map[string]bool{
		"gpt-4o-mini": false,
		"gpt-4.1":     false,
		"o1-mini":     true,
		"o3-mini":     true,
		"o4-mini":     true,
		"gpt-5":       true,
	}
	for model, want := range tests {
		if got := isReasoningModel(model); got != want {
			t.Errorf("isReasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestChat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini-2024-07-18",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "火災共済（店舗・設備補償）"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45},
		})
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "店舗が火事になったら"},
	}, &ChatOptions{MaxTokens: 64})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Content != "火災共済（店舗・設備補償）" {
		t.Errorf("Chat() content = %q", resp.Content)
	}
	if resp.Model != "gpt-4o-mini-2024-07-18" {
		t.Errorf("Chat() model = %q", resp.Model)
	}
	if resp.TokensPrompt != 40 || resp.TokensTotal != 45 {
		t.Errorf("Chat() tokens = %d/%d, want 40/45", resp.TokensPrompt, resp.TokensTotal)
	}

	if got["model"] != DefaultModel {
		t.Errorf("request model = %v, want %s", got["model"], DefaultModel)
	}
	if got["max_tokens"] != float64(64) {
		t.Errorf("request max_tokens = %v, want 64", got["max_tokens"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("request messages = %d, want 2", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"quota","type":"insufficient_quota"}}`,
			want:   ErrRateLimited,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom","type":"server_error"}}`,
			want:   ErrProviderUnavailable,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"id":"x","model":"gpt-4o-mini","choices":[]}`,
			want:   ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, err := New(Config{APIKey: "sk", BaseURL: server.URL + "/v1"}, testLogger())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			_, err = p.Chat(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Chat() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModelAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
		case "/v1/models/gpt-4o-mini":
			w.Write([]byte(`{"id":"gpt-4o-mini","object":"model"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
		}
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "sk", BaseURL: server.URL + "/v1"}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Heartbeat(context.Background()); err != nil {
		t.Errorf("Heartbeat() error = %v", err)
	}
	if ok, err := p.ModelAvailable(context.Background(), "gpt-4o-mini"); err != nil || !ok {
		t.Errorf("ModelAvailable(gpt-4o-mini) = %v, %v", ok, err)
	}
	if ok, err := p.ModelAvailable(context.Background(), "gpt-0"); err != nil || ok {
		t.Errorf("ModelAvailable(gpt-0) = %v, %v; want false, nil", ok, err)
	}
}
