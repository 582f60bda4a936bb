package models

import "fmt"

// AskRequest is a question against the knowledge base.
type AskRequest struct {
	Question string `json:"question"`
	// K is the number of passages to retrieve. Zero means the configured default.
	K int `json:"k,omitempty"`
}

// Validate checks the request and normalizes K. defaultK is applied when K is
// unset; allowed lists the permitted retrieval counts.
func (r *AskRequest) Validate(defaultK int, allowed []int) error {
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if r.K == 0 {
		r.K = defaultK
	}
	for _, k := range allowed {
		if r.K == k {
			return nil
		}
	}
	return fmt.Errorf("result count %d not allowed (choose from %v)", r.K, allowed)
}
