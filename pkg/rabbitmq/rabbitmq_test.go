package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	body, err := Encode("video.deleted", map[string]string{"videoId": "abc"}, at)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "video.deleted", decoded["type"])
	assert.Equal(t, "2024-03-01T12:00:00Z", decoded["occurredAt"])
	assert.Equal(t, map[string]interface{}{"videoId": "abc"}, decoded["data"])
}

func TestLogEvent(t *testing.T) {
	body, err := Encode("user.registered", map[string]string{"userId": "u1"}, time.Now())
	require.NoError(t, err)

	assert.NoError(t, LogEvent(amqp.Delivery{Body: body}))
	assert.Error(t, LogEvent(amqp.Delivery{Body: []byte("{not json")}))
}

func TestClient_WithoutChannel(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.Publish(context.Background(), "video.published", nil))
	assert.Error(t, c.ConsumeEvents(LogEvent))
	assert.NoError(t, c.Close())
}
