package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req completionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"question\":\"q\",\"answer\":\"a\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "key", "test-model", Options{}, zap.NewNop())
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"question":"q","answer":"a"}` {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestHTTPClientGenerate_SystemPromptAndLimits(t *testing.T) {
	temp := 0.2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != "be brief" {
			t.Errorf("expected system message first, got %+v", req.Messages)
		}
		if req.Temperature == nil || *req.Temperature != temp || req.MaxTokens != 200 {
			t.Errorf("unexpected limits: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  ok  "}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", Options{SystemPrompt: "be brief", Temperature: &temp, MaxTokens: 200}, nil)
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected trimmed content, got %q", out)
	}
}

func TestHTTPClientGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", Options{}, nil)
	_, err := c.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "slow down") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}

func TestHTTPClientGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", Options{}, nil)
	if _, err := c.Generate(context.Background(), "prompt"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
