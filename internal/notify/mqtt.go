// Package notify publishes accepted check-in events to external
// consumers over MQTT. Door displays and payroll integrations subscribe
// to the configured topic; the in-process default when no broker is
// configured is the attendance package's nop notifier.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
)

// publishTimeout bounds how long a single publish may block on the broker.
const publishTimeout = 10 * time.Second

// Config holds the broker settings.
type Config struct {
	BrokerURL string
	Topic     string
	ClientID  string
	Username  string
	Password  string
}

// MQTT publishes check-in events as JSON to a fixed topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	log    *logrus.Logger
}

// NewMQTT connects to the broker and returns a ready notifier.
func NewMQTT(cfg Config, log *logrus.Logger) (*MQTT, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt broker URL is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is empty")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "face-attendance"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Brokers drop the older session when two clients share an ID, so every
	// instance gets a unique suffix.
	clientID := cfg.ClientID + "-" + uuid.NewString()[:8]

	opts := mqtt.NewClientOptions().AddBroker(cfg.BrokerURL).SetClientID(clientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(30 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(mqtt.Client) {
		log.WithField("broker", cfg.BrokerURL).Info("connected to mqtt broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("lost mqtt connection")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	return &MQTT{client: client, topic: cfg.Topic, log: log}, nil
}

// Publish sends the event as JSON. QoS 1, so consumers may see an event
// twice and should dedup by its ID.
func (m *MQTT) Publish(ctx context.Context, ev attendance.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing event %s: broker did not confirm within %v", ev.ID, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing event %s: %w", ev.ID, err)
	}

	m.log.WithFields(logrus.Fields{
		"event": ev.ID,
		"topic": m.topic,
	}).Debug("published check-in event")
	return nil
}

// Close disconnects from the broker after letting in-flight messages
// drain for a quarter second.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

var _ attendance.Notifier = (*MQTT)(nil)
