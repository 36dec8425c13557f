package llm

import (
	"context"
	"time"
)

// MockClient is a Client whose behaviour is set per test
type MockClient struct {
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	HealthFunc   func(ctx context.Context) error
}

func (m *MockClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResponse{
		Model:     req.Model,
		Response:  `{}`,
		Done:      true,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockClient) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// RespondWith returns a mock that always answers with response
func RespondWith(response string) *MockClient {
	return &MockClient{
		GenerateFunc: func(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
			return &GenerateResponse{
				Model:     req.Model,
				Response:  response,
				Done:      true,
				EvalCount: len(response),
				CreatedAt: time.Now(),
			}, nil
		},
	}
}
