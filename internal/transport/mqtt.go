// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	applog "dronebeat/internal/log"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
)

// MQTTConfig holds publisher connection settings.
type MQTTConfig struct {
	Broker    string // e.g. "tcp://broker.local:1883"
	ClientID  string // generated when empty
	Username  string
	Password  string
	TopicRoot string // e.g. "dronebeat"
}

// MQTTPublisher sends session events to an MQTT broker. Events land on
// <root>/<session>/<type>, so a fleet dashboard can subscribe to
// dronebeat/+/beat or a single session's full feed. Other payloads go
// to the topic root.
type MQTTPublisher struct {
	client    mqtt.Client
	topicRoot string
}

// NewMQTTPublisher connects to the broker and returns a ready
// publisher. Connection failure is fatal here; telemetry is opt-in,
// so a configured-but-unreachable broker is a setup mistake worth
// stopping for.
func NewMQTTPublisher(config MQTTConfig) (*MQTTPublisher, error) {
	clientID := config.ClientID
	if clientID == "" {
		clientID = "dronebeat-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(clientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		applog.Infof("telemetry: connected to MQTT broker %s", config.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		applog.Warnf("telemetry: MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(mqttConnectTimeout) || token.Error() != nil {
		client.Disconnect(0)
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", config.Broker)
	}

	return &MQTTPublisher{
		client:    client,
		topicRoot: config.TopicRoot,
	}, nil
}

// Send publishes data as JSON at QoS 0. Frames lost while the broker
// is unreachable are gone; telemetry favors freshness over
// completeness, same as the capture hand-off.
func (p *MQTTPublisher) Send(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("telemetry marshal: %w", err)
	}

	token := p.client.Publish(p.topic(data), 0, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("telemetry publish timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry publish: %w", err)
	}
	return nil
}

func (p *MQTTPublisher) topic(data any) string {
	event, ok := data.(Event)
	if !ok || event.Type == "" {
		return p.topicRoot
	}
	if event.Session == "" {
		return p.topicRoot + "/" + event.Type
	}
	return p.topicRoot + "/" + event.Session + "/" + event.Type
}

// Close disconnects from the broker, allowing 250ms for in-flight
// packets to drain.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

var _ Transport = (*MQTTPublisher)(nil)
