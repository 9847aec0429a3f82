package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/resilience"
)

func TestSynthesizeSendsPrompt(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  Страховая пенсия назначается со дня обращения.  "}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", Options{})
	synth := NewSynthesizer(client)

	answer, err := synth.Synthesize(context.Background(), "Вопрос: когда назначается пенсия?")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if answer != "Страховая пенсия назначается со дня обращения." {
		t.Fatalf("answer not trimmed: %q", answer)
	}
	if captured["model"] != "gen" {
		t.Fatalf("model = %v, want gen", captured["model"])
	}
	if captured["stream"] != false {
		t.Fatalf("stream = %v, want false", captured["stream"])
	}
	prompt, _ := captured["prompt"].(string)
	if !strings.Contains(prompt, "когда назначается пенсия") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", Options{})
	embedder := NewEmbedder(client)
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	client := New(server.URL, "gen", "embed", Options{ResilienceExecutor: executor})
	embedder := NewEmbedder(client)

	vectors, err := embedder.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("server called %d times, want 2", got)
	}
}

func TestEmbedWrapsRetryableStatusAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
	client := New(server.URL, "gen", "embed", Options{ResilienceExecutor: executor})
	embedder := NewEmbedder(client)

	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error kind, got %v", err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", Options{})
	embedder := NewEmbedder(client)
	_, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("Embed() error = %v, want count mismatch", err)
	}
}

func TestClassifyOllamaError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"nil", nil, false, false},
		{"canceled", context.Canceled, false, false},
		{"status 404", &HTTPStatusError{StatusCode: http.StatusNotFound}, false, false},
		{"status 503", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, true, true},
		{"status 429", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, true, true},
	}

	for _, tc := range cases {
		class := classifyOllamaError(tc.err)
		if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
			t.Fatalf("%s: classification = %+v, want retryable=%v record=%v", tc.name, class, tc.retryable, tc.record)
		}
	}
}
