package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mock-response-service/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadline", errors.New("rpc error: code = DeadlineExceeded desc = context deadline exceeded"), true},
		{"unavailable", errors.New("rpc error: code = Unavailable"), true},
		{"not found", errors.New("process not found"), false},
		{"no brokers", fmt.Errorf("connect: %w", ErrNoBrokers), true},
		{"context deadline", fmt.Errorf("topology: %w", context.DeadlineExceeded), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(config.CamundaConfig{})
	require.Error(t, err)
	assert.False(t, IsRetryableError(err))
}
