package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"quantum-sensing/internal/config"
	"quantum-sensing/internal/events"
	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
)

const (
	component      = "MQTTSink"
	sensorToken    = "{sensor}"
	statusSuffix   = "/status"
	publishTimeout = 5 * time.Second
	disconnectMs   = 250
)

// publisher is the subset of paho.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type SamplePayload struct {
	RunID     string    `json:"run_id"`
	Sensor    string    `json:"sensor"`
	Index     int       `json:"index"`
	Elapsed   float64   `json:"elapsed_s"`
	Reading   int       `json:"reading"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusPayload struct {
	RunID     string    `json:"run_id"`
	Sensor    string    `json:"sensor"`
	Status    string    `json:"status"`
	Samples   int       `json:"samples,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink streams samples and run status to an MQTT broker.
type Sink struct {
	client publisher
	conn   paho.Client
	topic  string
	qos    byte
	logger logger.Logger
}

// Connect dials the broker described by cfg.
func Connect(cfg config.MQTTConfig, log logger.Logger) (*Sink, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info(component, "connected", map[string]interface{}{"broker": cfg.Broker})
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warning(component, "connection lost", map[string]interface{}{"error": err.Error()})
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}

	s := newSink(client, cfg.Topic, cfg.QoS, log)
	s.conn = client
	return s, nil
}

func newSink(client publisher, topic string, qos byte, log logger.Logger) *Sink {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Sink{client: client, topic: topic, qos: qos, logger: log}
}

func (s *Sink) ID() string { return "mqtt-sink" }

// Handle publishes sample and run lifecycle events. Publish failures are
// logged and never interrupt the run.
func (s *Sink) Handle(event events.Event) {
	var (
		topic   string
		payload interface{}
	)

	switch event.Type {
	case events.SampleProduced:
		topic = s.sampleTopic(event.Sensor)
		payload = SamplePayload{
			RunID:     event.RunID,
			Sensor:    string(event.Sensor),
			Index:     event.Index,
			Elapsed:   event.Sample.Elapsed,
			Reading:   event.Sample.Reading,
			Timestamp: event.Timestamp,
		}
	case events.RunStarted, events.RunComplete, events.RunStopped:
		topic = s.sampleTopic(event.Sensor) + statusSuffix
		status := StatusPayload{
			RunID:     event.RunID,
			Sensor:    string(event.Sensor),
			Status:    string(event.Type),
			Timestamp: event.Timestamp,
		}
		if event.Summary != nil {
			status.Samples = event.Summary.SampleCount
		}
		payload = status
	default:
		return
	}

	if err := s.publishJSON(topic, payload); err != nil {
		s.logger.Error(component, err, map[string]interface{}{
			"topic": topic,
			"event": string(event.Type),
		})
	}
}

func (s *Sink) sampleTopic(sensor models.SensorKind) string {
	name := strings.ToLower(string(sensor))
	if name == "" {
		name = "custom"
	}
	return strings.ReplaceAll(s.topic, sensorToken, name)
}

func (s *Sink) publishJSON(topic string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	token := s.client.Publish(topic, s.qos, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func (s *Sink) Shutdown() {
	if s.conn != nil {
		s.conn.Disconnect(disconnectMs)
		s.logger.Info(component, "disconnected", nil)
	}
}
