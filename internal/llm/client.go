// Package llm provides the chat-completion client used to generate answers.
package llm

import "context"

// Request is a single chat-style completion request. Model, temperature, and
// output length are fixed per client, not per call.
type Request struct {
	System string
	Prompt string
}

// Client generates a completion for a request. Implementations make one
// synchronous attempt; retries are the caller's decision.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
