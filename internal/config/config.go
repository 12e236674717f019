package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"quantum-sensing/internal/logger"
	"quantum-sensing/internal/models"
)

const (
	EnvLogLevel      = "QSENSE_LOG_LEVEL"
	EnvJSONLogs      = "QSENSE_JSON_LOGS"
	EnvDefaultSensor = "QSENSE_DEFAULT_SENSOR"
	EnvOutputDir     = "QSENSE_OUTPUT_DIR"
	EnvMQTTBroker    = "QSENSE_MQTT_BROKER"
	EnvMQTTClientID  = "QSENSE_MQTT_CLIENT_ID"
	EnvMQTTUsername  = "QSENSE_MQTT_USERNAME"
	EnvMQTTPassword  = "QSENSE_MQTT_PASSWORD"
	EnvMQTTTopic     = "QSENSE_MQTT_TOPIC"
	EnvMQTTQoS       = "QSENSE_MQTT_QOS"
	EnvShutdown      = "QSENSE_SHUTDOWN_TIMEOUT"
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic may contain {sensor}, replaced with the run's sensor kind.
	Topic string
	QoS   byte
}

// Enabled reports whether a broker was configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

type Config struct {
	LogLevel      string
	JSONLogs      bool
	DefaultSensor models.SensorKind
	OutputDir     string
	MQTT          MQTTConfig
	// ShutdownTimeout bounds how long each component may take to stop.
	ShutdownTimeout time.Duration
}

func Default() Config {
	return Config{
		LogLevel:        "info",
		DefaultSensor:   models.Temperature,
		OutputDir:       ".",
		ShutdownTimeout: 10 * time.Second,
		MQTT: MQTTConfig{
			ClientID: "quantum-sensing",
			Topic:    "qsense/{sensor}/samples",
		},
	}
}

// Load reads an optional .env file from the working directory and then
// the process environment. Unset variables keep their defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile is Load with an explicit dotenv path, which must exist.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		return Default(), fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Default()

	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}

	jsonLogs, err := getEnvBool(EnvJSONLogs, cfg.JSONLogs)
	if err != nil {
		return cfg, err
	}
	cfg.JSONLogs = jsonLogs

	if v := os.Getenv(EnvDefaultSensor); v != "" {
		kind, err := models.ParseSensorKind(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDefaultSensor, err)
		}
		cfg.DefaultSensor = kind
	}

	cfg.OutputDir = getEnv(EnvOutputDir, cfg.OutputDir)

	cfg.MQTT.Broker = getEnv(EnvMQTTBroker, cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv(EnvMQTTClientID, cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv(EnvMQTTUsername, cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv(EnvMQTTPassword, cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv(EnvMQTTTopic, cfg.MQTT.Topic)

	if v := os.Getenv(EnvMQTTQoS); v != "" {
		qos, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || qos < 0 || qos > 2 {
			return cfg, fmt.Errorf("%s: must be 0, 1 or 2, got %q", EnvMQTTQoS, v)
		}
		cfg.MQTT.QoS = byte(qos)
	}

	if v := strings.TrimSpace(os.Getenv(EnvShutdown)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("%s: must be a positive duration, got %q", EnvShutdown, v)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
