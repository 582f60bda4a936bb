package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGroqClient_MissingKey(t *testing.T) {
	_, err := NewGroqClient(GroqConfig{Model: "llama-3.1-8b-instant"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error: got %v, want ErrNoAPIKey", err)
	}
}

func TestGroqClient_Complete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  Twelve days.  "}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewGroqClient(GroqConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		t.Fatal(err)
	}
	answer, err := c.Complete(context.Background(), Request{System: "sys", Prompt: "How many vacation days?"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "Twelve days." {
		t.Errorf("answer: got %q", answer)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotBody["model"] != "llama-3.1-8b-instant" {
		t.Errorf("model: got %v", gotBody["model"])
	}
	if gotBody["temperature"].(float64) != 0.1 {
		t.Errorf("temperature: got %v", gotBody["temperature"])
	}
	if gotBody["max_tokens"].(float64) != 1024 {
		t.Errorf("max_tokens: got %v", gotBody["max_tokens"])
	}
}

func TestGroqClient_CompleteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := NewGroqClient(GroqConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := c.Complete(context.Background(), Request{Prompt: "q"}); err == nil {
		t.Error("expected error from non-2xx response")
	}
}

func TestGroqClient_CompleteUnreachable(t *testing.T) {
	c, _ := NewGroqClient(GroqConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k", Model: "m"})
	if _, err := c.Complete(context.Background(), Request{Prompt: "q"}); err == nil {
		t.Error("expected error when service is unreachable")
	}
}
