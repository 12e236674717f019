package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantum-sensing/internal/events"
	"quantum-sensing/internal/models"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	messages []message
	err      error
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.messages = append(f.messages, message{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: f.err}
}

func TestSinkPublishesSamples(t *testing.T) {
	client := &fakeClient{}
	sink := newSink(client, "lab/{sensor}/samples", 1, nil)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	sink.Handle(events.Event{
		Type:      events.SampleProduced,
		RunID:     "run-1",
		Sensor:    models.Pressure,
		Sample:    models.Sample{Elapsed: 2.5, Reading: 64},
		Index:     5,
		Timestamp: ts,
	})

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "lab/pressure/samples", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var got SamplePayload
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, SamplePayload{RunID: "run-1", Sensor: "Pressure", Index: 5, Elapsed: 2.5, Reading: 64, Timestamp: ts}, got)
}

func TestSinkPublishesStatus(t *testing.T) {
	client := &fakeClient{}
	sink := newSink(client, "qsense/{sensor}/samples", 0, nil)

	sink.Handle(events.Event{
		Type:    events.RunComplete,
		RunID:   "run-2",
		Sensor:  models.Humidity,
		Summary: &models.RunSummary{SampleCount: 26},
	})

	require.Len(t, client.messages, 1)
	assert.Equal(t, "qsense/humidity/samples/status", client.messages[0].topic)

	var got StatusPayload
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &got))
	assert.Equal(t, "run_complete", got.Status)
	assert.Equal(t, 26, got.Samples)
}

func TestSinkIgnoresOtherEvents(t *testing.T) {
	client := &fakeClient{}
	sink := newSink(client, "t/{sensor}", 0, nil)

	sink.Handle(events.Event{Type: events.SaveComplete, Path: "x.txt"})
	sink.Handle(events.Event{Type: events.ValidationFailed, Err: errors.New("bad")})

	assert.Empty(t, client.messages)
}

func TestSinkSurvivesPublishErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	sink := newSink(client, "t/{sensor}", 0, nil)

	assert.NotPanics(t, func() {
		sink.Handle(events.Event{Type: events.SampleProduced, Sensor: models.Temperature})
	})
	assert.Equal(t, "t/temperature", client.messages[0].topic)
}
