package events

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coreevents "github.com/gridpulse/microgrid-dispatch/core/events"
	"github.com/gridpulse/microgrid-dispatch/infra/logger"
)

// Config defines the connection parameters for the MQTT notifier.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatch-client"
	}
	if c.Topic == "" {
		c.Topic = "dispatch/events"
	}
}

// Validate checks mandatory fields when the notifier is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("events broker is required")
	}
	return nil
}

// MQTTPublisher publishes lifecycle events to an MQTT topic using Eclipse
// Paho.
type MQTTPublisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg Config) (*MQTTPublisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	cli := paho.NewClient(opts)
	if tok := cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
	}
	return &MQTTPublisher{
		cli:   cli,
		topic: cfg.Topic,
		qos:   cfg.QoS,
		log:   logger.New("event-publisher"),
	}, nil
}

// Publish serializes the event as JSON and publishes it.
func (p *MQTTPublisher) Publish(ev coreevents.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	tok := p.cli.Publish(p.topic, p.qos, false, payload)
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("publish event: %w", tok.Error())
	}
	p.log.Debugw("event published", map[string]any{
		"action":      ev.Action,
		"dispatch_id": ev.DispatchID,
	})
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.cli.Disconnect(250)
}
