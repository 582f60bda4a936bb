package models

// RetrievedPassage is a chunk plus its position in a similarity-ranked result
// list. Constructed per query and discarded after use.
type RetrievedPassage struct {
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
	Rank int      `json:"rank"`
}

// AskResponse is the answer to a question: generated text plus the
// deduplicated sources of the passages that grounded it.
type AskResponse struct {
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Sources   []string           `json:"sources"`
	Passages  []RetrievedPassage `json:"passages,omitempty"`
	QueryTime int64              `json:"query_time_ms"`
}
