package llm

import "context"

// MockClient is a deterministic Client for tests. It records the last request
// and returns the configured response or error.
type MockClient struct {
	Response string
	Err      error
	Calls    int
	LastReq  Request
}

// NewMockClient returns a mock that answers every request with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

func (m *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	m.Calls++
	m.LastReq = req
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
