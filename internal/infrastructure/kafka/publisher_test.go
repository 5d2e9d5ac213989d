package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxom3/genai-regwatch/internal/domain"
)

type captureWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return c.err
}

func (c *captureWriter) Close() error {
	c.closed = true
	return nil
}

func TestPublisherWritesKeyedJSON(t *testing.T) {
	t.Parallel()

	w := &captureWriter{}
	p := NewPublisherWithWriter(w)
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	err := p.Notify(context.Background(), domain.Alert{
		DocumentID:  42,
		Regulator:   "RBI",
		Title:       "Circular",
		Summary:     "s",
		Actions:     []domain.ActionItem{{Function: "Risk", Task: "Review"}},
		ActionsJSON: "ignored",
		ProcessedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Circular", decoded["title"])
	assert.NotContains(t, decoded, "ActionsJSON")
	assert.Len(t, decoded["actions"], 1)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "kafka", p.Name())
}

func TestPublisherWrapsWriteError(t *testing.T) {
	t.Parallel()

	p := NewPublisherWithWriter(&captureWriter{err: errors.New("leader not available")})
	err := p.Notify(context.Background(), domain.Alert{DocumentID: 1})
	assert.ErrorContains(t, err, "leader not available")
}
