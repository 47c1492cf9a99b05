// Package events publishes M17 relay activity as JSON events to an
// external broker. The broker connection is stubbed pending a chosen
// MQTT client library; the event shapes and topic layout are final.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m17-go/m17/internal/logger"
)

// Config holds event-publisher configuration.
type Config struct {
	Enabled     bool
	Broker      string
	TopicPrefix string
	ClientID    string
}

// Publisher handles relay event publishing.
type Publisher struct {
	config Config
	log    *logger.Logger
}

// ReflectorConnectEvent reports a reflector connection transition.
type ReflectorConnectEvent struct {
	Reflector string    `json:"reflector"`
	Callsign  string    `json:"callsign"`
	Timestamp time.Time `json:"timestamp"`
}

// ReflectorDisconnectEvent reports a reflector disconnection.
type ReflectorDisconnectEvent struct {
	Reflector string    `json:"reflector"`
	Callsign  string    `json:"callsign"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamEvent reports an M17 stream transmission.
type StreamEvent struct {
	SrcCallsign string    `json:"src_callsign"`
	DstCallsign string    `json:"dst_callsign"`
	StreamID    uint32    `json:"stream_id"`
	Reflector   string    `json:"reflector"`
	Timestamp   time.Time `json:"timestamp"`
}

// BridgeEvent reports a bridge rule activation state change.
type BridgeEvent struct {
	BridgeName string    `json:"bridge_name"`
	Reflector  string    `json:"reflector"`
	Module     string    `json:"module"`
	Active     bool      `json:"active"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a new event publisher.
func New(config Config, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}
	return &Publisher{config: config, log: log.WithComponent("events")}
}

// Start starts the event publisher.
func (p *Publisher) Start(ctx context.Context) error {
	if !p.config.Enabled {
		p.log.Info("event publisher disabled")
		return nil
	}

	p.log.Info("starting event publisher",
		logger.String("broker", p.config.Broker),
		logger.String("client_id", p.config.ClientID))

	// TODO: dial the broker once an MQTT client library is selected.
	p.log.Warn("broker connection not yet implemented - events will not be published")
	return nil
}

// Stop stops the event publisher.
func (p *Publisher) Stop() {
	if !p.config.Enabled {
		return
	}
	p.log.Info("stopping event publisher")
}

// PublishReflectorConnect publishes a reflector-connect event.
func (p *Publisher) PublishReflectorConnect(event ReflectorConnectEvent) error {
	if !p.config.Enabled {
		return nil
	}
	return p.publish(p.formatTopic("reflector/connect"), event)
}

// PublishReflectorDisconnect publishes a reflector-disconnect event.
func (p *Publisher) PublishReflectorDisconnect(event ReflectorDisconnectEvent) error {
	if !p.config.Enabled {
		return nil
	}
	return p.publish(p.formatTopic("reflector/disconnect"), event)
}

// PublishStream publishes a stream-transmission event.
func (p *Publisher) PublishStream(event StreamEvent) error {
	if !p.config.Enabled {
		return nil
	}
	return p.publish(p.formatTopic("stream"), event)
}

// PublishBridgeChange publishes a bridge activation state change.
func (p *Publisher) PublishBridgeChange(event BridgeEvent) error {
	if !p.config.Enabled {
		return nil
	}
	return p.publish(p.formatTopic("bridge/change"), event)
}

func (p *Publisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to serialize event", logger.String("topic", topic), logger.Error(err))
		return err
	}

	// TODO: publish payload once the broker connection is implemented.
	p.log.Debug("would publish event",
		logger.String("topic", topic),
		logger.Int("payload_size", len(payload)))

	return nil
}

func (p *Publisher) formatTopic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s/%s", prefix, suffix)
}
