package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("tcp://localhost:1883", "identity-service", "u", "p")

	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
}

func TestPublishRequiresConnection(t *testing.T) {
	c := NewClient(DefaultConfig("tcp://127.0.0.1:1", "identity-test", "", ""))

	assert.False(t, c.IsConnected())
	err := c.Publish(context.Background(), "identity/events/user.registered", 1, false, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectFailsWithoutBroker(t *testing.T) {
	cfg := DefaultConfig("tcp://127.0.0.1:1", "identity-test", "", "")
	cfg.AutoReconnect = false
	cfg.ConnectTimeout = time.Second
	c := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	assert.Error(t, c.Connect(ctx))
}
