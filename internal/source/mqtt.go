// Package source feeds the coach runner with landmark frames from
// external producers. The MQTT source subscribes to a broker topic
// carrying JSON frames published by the pose-model process.
package source

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/reachwell/reachwell/internal/coach"
	"github.com/reachwell/reachwell/internal/monitoring"
	"github.com/reachwell/reachwell/internal/pose"
)

// DefaultTopic is the broker topic landmark frames arrive on.
const DefaultTopic = "reachwell/landmarks"

// MQTTConfig configures a broker-backed landmark source.
type MQTTConfig struct {
	BrokerURL string // e.g. tcp://localhost:1883
	ClientID  string
	Topic     string
	QoS       byte
}

// MQTTSource subscribes to a landmark topic and submits each decoded
// frame to the runner. Decoding errors are logged and the frame dropped;
// a bad producer must not stall the session.
type MQTTSource struct {
	cfg    MQTTConfig
	runner *coach.Runner
	client mqtt.Client
}

// NewMQTTSource connects to the broker and subscribes. Returns an error
// if the initial connect or subscribe fails.
func NewMQTTSource(cfg MQTTConfig, runner *coach.Runner) (*MQTTSource, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "reachwell-coach"
	}
	s := &MQTTSource{cfg: cfg, runner: runner}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		token := c.Subscribe(cfg.Topic, cfg.QoS, s.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			monitoring.Logf("source: subscribe to %s failed: %v", cfg.Topic, err)
			return
		}
		monitoring.Logf("source: subscribed to %s", cfg.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		monitoring.Logf("source: broker connection lost: %v", err)
	}

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", cfg.BrokerURL, token.Error())
	}
	monitoring.Logf("source: connected to MQTT broker at %s", cfg.BrokerURL)
	return s, nil
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var frame pose.Frame
	if err := json.Unmarshal(msg.Payload(), &frame); err != nil {
		monitoring.Logf("source: frame unmarshal error: %v", err)
		return
	}
	s.runner.Submit(&frame)
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}
