package irrecoverable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockSignalerContext is a SignalerContext that fails the test when an error is thrown,
// unless the error was announced with NewMockSignalerContextExpectError.
type MockSignalerContext struct {
	context.Context
	t           *testing.T
	expectError error
}

var _ SignalerContext = &MockSignalerContext{}

func (m MockSignalerContext) sealed() {}

func (m MockSignalerContext) Throw(err error) {
	if m.expectError != nil {
		require.ErrorIs(m.t, err, m.expectError)
		return
	}
	m.t.Fatalf("mock signaler context received error: %v", err)
}

func NewMockSignalerContext(t *testing.T, ctx context.Context) *MockSignalerContext {
	return &MockSignalerContext{
		Context: ctx,
		t:       t,
	}
}

func NewMockSignalerContextWithCancel(t *testing.T, parent context.Context) (*MockSignalerContext, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return NewMockSignalerContext(t, ctx), cancel
}

// NewMockSignalerContextExpectError returns a context whose Throw asserts that the thrown error is expected.
func NewMockSignalerContextExpectError(t *testing.T, ctx context.Context, expected error) *MockSignalerContext {
	require.NotNil(t, expected)
	return &MockSignalerContext{
		Context:     ctx,
		t:           t,
		expectError: expected,
	}
}
