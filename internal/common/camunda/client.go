// internal/common/camunda/client.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mock-response-service/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// ErrNoBrokers is returned when the gateway answers but reports no brokers.
var ErrNoBrokers = errors.New("zeebe gateway reports no brokers")

// Client is the Zeebe gateway connection shared by the mock job workers.
type Client struct {
	client  zbc.Client
	address string
	timeout time.Duration
}

// NewClient opens a plaintext connection to cfg.BrokerAddress and waits for
// one topology answer before returning.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	if cfg.BrokerAddress == "" {
		return nil, fmt.Errorf("zeebe broker address is empty")
	}
	timeout := config.GetDuration(cfg.RequestTimeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, address: cfg.BrokerAddress, timeout: timeout}
	if _, err := c.Brokers(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Brokers asks the gateway for its topology and returns the broker count.
func (c *Client) Brokers(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	topology, err := c.client.NewTopologyCommand().Send(ctx)
	if err != nil {
		return 0, err
	}
	if len(topology.Brokers) == 0 {
		return 0, ErrNoBrokers
	}
	return len(topology.Brokers), nil
}

// IsRetryableError reports transient connection failures worth retrying.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoBrokers) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
