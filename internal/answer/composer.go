// Package answer builds grounded prompts and composes cited answers from
// retrieved passages.
package answer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kotae-dev/kotae/internal/llm"
	"github.com/kotae-dev/kotae/internal/models"
	"go.uber.org/zap"
)

// systemInstruction is the fixed system message for every completion.
const systemInstruction = "You are a helpful company knowledge assistant. Provide accurate answers based on the given documents."

// notInitializedAnswer is returned when the composer was constructed without
// a working LLM client (e.g. missing credential).
const notInitializedAnswer = "Error: language model client not initialized. Check your API key."

// BuildPrompt renders the grounded prompt: passage texts in supplied order as
// context, then the verbatim question. The instruction requires the model to
// admit when the context lacks the answer and to cite sources.
func BuildPrompt(question string, passages []models.RetrievedPassage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	context := strings.Join(texts, "\n\n")
	return fmt.Sprintf(`Based on the following company documents, please answer the user's question.
If the information is not in the provided context, say you don't know.

Company Documents Context:
%s

User Question: %s

Please provide a helpful answer with citations from the source documents:`, context, question)
}

// Sources returns the deduplicated source names across passages, sorted for
// stable output.
func Sources(passages []models.RetrievedPassage) []string {
	seen := make(map[string]struct{}, len(passages))
	out := make([]string, 0, len(passages))
	for _, p := range passages {
		src := p.Meta.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// Composer turns a question plus retrieved passages into an answer with
// cited sources. It owns no state beyond its LLM client.
type Composer struct {
	client llm.Client
	logger *zap.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ComposerOption {
	return func(c *Composer) { c.logger = l }
}

// NewComposer creates a composer. client may be nil when initialization
// failed; every Answer call then reports the not-initialized condition
// instead of retrying initialization.
func NewComposer(client llm.Client, opts ...ComposerOption) *Composer {
	c := &Composer{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Answer generates an answer grounded in passages. Failures of the language
// model service are reported as the answer text with an empty source list;
// no error crosses to the caller. Empty passages still produce a completion
// call so the model's "I don't know" instruction handles the empty case.
func (c *Composer) Answer(ctx context.Context, question string, passages []models.RetrievedPassage) (string, []string) {
	if c.client == nil {
		return notInitializedAnswer, []string{}
	}
	prompt := BuildPrompt(question, passages)
	text, err := c.client.Complete(ctx, llm.Request{System: systemInstruction, Prompt: prompt})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("answer generation failed", zap.Error(err))
		}
		return fmt.Sprintf("Error generating response: %v", err), []string{}
	}
	return text, Sources(passages)
}
