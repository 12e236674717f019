package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantum-sensing/internal/models"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		EnvLogLevel, EnvJSONLogs, EnvDefaultSensor, EnvOutputDir,
		EnvMQTTBroker, EnvMQTTClientID, EnvMQTTUsername, EnvMQTTPassword,
		EnvMQTTTopic, EnvMQTTQoS, EnvShutdown,
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvJSONLogs, "true")
	t.Setenv(EnvDefaultSensor, "humidity")
	t.Setenv(EnvOutputDir, "/tmp/runs")
	t.Setenv(EnvMQTTBroker, "tcp://broker:1883")
	t.Setenv(EnvMQTTTopic, "lab/{sensor}")
	t.Setenv(EnvMQTTQoS, "1")
	t.Setenv(EnvShutdown, "2s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.JSONLogs)
	assert.Equal(t, models.Humidity, cfg.DefaultSensor)
	assert.Equal(t, "/tmp/runs", cfg.OutputDir)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "lab/{sensor}", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "quantum-sensing", cfg.MQTT.ClientID)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		EnvLogLevel:      "chatty",
		EnvJSONLogs:      "perhaps",
		EnvDefaultSensor: "seismic",
		EnvMQTTQoS:       "3",
		EnvShutdown:      "-1s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty ones.
	os.Unsetenv(EnvDefaultSensor)
	path := filepath.Join(t.TempDir(), "qsense.env")
	require.NoError(t, os.WriteFile(path, []byte("QSENSE_DEFAULT_SENSOR=Pressure\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvDefaultSensor) })

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.Pressure, cfg.DefaultSensor)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
