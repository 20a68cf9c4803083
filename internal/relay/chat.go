package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/mqtt"
)

// ErrEmptyChat is returned for an empty inbound chat payload.
var ErrEmptyChat = errors.New("relay: chat payload is empty")

// Gate reports whether a capability is enabled. *endpoint.Registry
// satisfies it.
type Gate interface {
	Require(name string) error
}

// ChatRelay forwards payloads published on {prefix}/command/chat/message
// and {prefix}/command/chat/command to the host. Each kind is gated by the
// same capability as its REST route, so disabling chat.commands in the
// config also closes the MQTT path.
type ChatRelay struct {
	sub    Subscriber
	topics mqtt.Topics
	qos    byte
	gate   Gate
	hosts  host.Executor
	logger *logging.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewChatRelay creates a ChatRelay.
func NewChatRelay(sub Subscriber, topics mqtt.Topics, qos byte, gate Gate, hosts host.Executor, logger *logging.Logger) *ChatRelay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ChatRelay{
		sub:    sub,
		topics: topics,
		qos:    qos,
		gate:   gate,
		hosts:  hosts,
		logger: logger.With("component", "relay.chat"),
	}
}

// Name implements gateway.Service.
func (c *ChatRelay) Name() string { return "mqtt-chat" }

// Start implements gateway.Service. ctx bounds in-flight host calls and is
// cancelled when the gateway stops.
func (c *ChatRelay) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		return ErrAlreadyStarted
	}
	if err := c.sub.Subscribe(c.topics.AllChatCommands(), c.qos, c.handle); err != nil {
		return fmt.Errorf("subscribing to chat commands: %w", err)
	}
	c.ctx = ctx
	return nil
}

// Stop implements gateway.Service.
func (c *ChatRelay) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return nil
	}
	c.ctx = nil
	if err := c.sub.Unsubscribe(c.topics.AllChatCommands()); err != nil {
		return fmt.Errorf("unsubscribing from chat commands: %w", err)
	}
	return nil
}

func (c *ChatRelay) runContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// handle is the MQTT message handler. Errors are logged by the MQTT client.
func (c *ChatRelay) handle(topic string, payload []byte) error {
	ctx := c.runContext()
	if ctx == nil {
		return nil
	}

	kind, ok := c.topics.ParseChatCommand(topic)
	if !ok {
		return fmt.Errorf("unknown chat topic %q", topic)
	}

	capability, send := endpoint.ChatMessages, host.Host.SendChatMessage
	if kind == mqtt.ChatKindCommand {
		capability, send = endpoint.ChatCommands, host.Host.SendChatCommand
	}
	if err := c.gate.Require(capability); err != nil {
		return err
	}

	text := string(payload)
	if text == "" {
		return ErrEmptyChat
	}

	err := c.hosts.Do(ctx, func(h host.Host) error {
		if !h.PlayerPresent() {
			return host.ErrPlayerUnavailable
		}
		return send(h, text)
	})
	if err != nil {
		return fmt.Errorf("forwarding chat %s: %w", kind, err)
	}
	c.logger.Debug("chat forwarded from mqtt", "kind", kind)
	return nil
}
