package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"studycards/internal/llm"
)

func TestLLMCardGenerator_ParsesReply(t *testing.T) {
	mock := &llm.MockClient{Response: "```json\n{\"question\": \"What is a goroutine?\", \"answer\": \"A lightweight thread.\"}\n```"}
	gen := NewLLMCardGenerator(mock, nil)

	q, a, err := gen.Generate(context.Background(), "Goroutines are lightweight threads managed by the Go runtime.")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q != "What is a goroutine?" || a != "A lightweight thread." {
		t.Fatalf("unexpected card: %q / %q", q, a)
	}
	if !strings.Contains(mock.LastPrompt, "Goroutines are lightweight") {
		t.Fatalf("expected study text in prompt")
	}
}

func TestLLMCardGenerator_FallsBack(t *testing.T) {
	cases := map[string]*llm.MockClient{
		"client error":   {Err: errors.New("boom")},
		"no json":        {Response: "sorry, I cannot help"},
		"missing answer": {Response: `{"question":"Q"}`},
	}
	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			q, a, err := NewLLMCardGenerator(mock, nil).Generate(context.Background(), "text")
			if err != nil {
				t.Fatalf("expected fallback without error, got %v", err)
			}
			if q != PlaceholderQuestion || a != PlaceholderAnswer {
				t.Fatalf("expected placeholder, got %q / %q", q, a)
			}
		})
	}

	mock := &llm.MockClient{Response: `{"question":"Q","answer":"A"}`}
	if _, _, err := NewLLMCardGenerator(mock, nil).Generate(context.Background(), "   "); err != nil || mock.Calls != 0 {
		t.Fatalf("expected no llm call for blank text, calls=%d err=%v", mock.Calls, err)
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`noise {"a":"}"} trailing`, `{"a":"}"}`},
		{`{"a":{"b":1}}{"c":2}`, `{"a":{"b":1}}`},
		{`{"a":"\"{"}`, `{"a":"\"{"}`},
		{`no object`, ``},
		{`{"open":`, ``},
	}
	for _, tc := range cases {
		if got := extractFirstJSONObject(tc.in); got != tc.want {
			t.Fatalf("extract(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCardLLMOptions(t *testing.T) {
	opts := CardLLMOptions(5 * time.Second)
	if !strings.Contains(opts.SystemPrompt, `{"question"`) {
		t.Fatalf("expected system prompt to describe the reply shape, got %q", opts.SystemPrompt)
	}
	if opts.Temperature == nil || opts.MaxTokens <= 0 || opts.Timeout != 5*time.Second {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
