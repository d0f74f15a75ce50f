package agent

import (
	"context"
	"fmt"

	"codegen/pkg/agent/llm"
)

// MockClient provides a controllable implementation of llm.Client for testing.
type MockClient struct {
	responses     []llm.CompletionResponse
	responseIndex int
	errors        []error
	errorIndex    int
	requests      []llm.CompletionRequest
}

// NewMockClient creates a new mock client with predefined responses.
func NewMockClient(responses []llm.CompletionResponse, errors []error) *MockClient {
	return &MockClient{
		responses: responses,
		errors:    errors,
	}
}

// Complete returns the next predefined response or error.
func (m *MockClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)

	if m.errorIndex < len(m.errors) && m.errors[m.errorIndex] != nil {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return llm.CompletionResponse{}, err
	}

	if m.responseIndex >= len(m.responses) {
		return llm.CompletionResponse{}, fmt.Errorf("mock client: no more responses")
	}

	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return resp, nil
}

// GetModelName returns a fixed model name for the mock.
func (m *MockClient) GetModelName() string {
	return "mock-model"
}

// Requests returns every completion request the mock has seen, in order.
func (m *MockClient) Requests() []llm.CompletionRequest {
	return m.requests
}
