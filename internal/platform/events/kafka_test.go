package events

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestOnDelivery(t *testing.T) {
	record := &kgo.Record{Topic: "nagrik.events", Key: []byte("issue-1")}

	t.Run("broker failure is logged", func(t *testing.T) {
		var buf bytes.Buffer
		p := &KafkaPublisher{logger: slog.New(slog.NewTextHandler(&buf, nil))}

		p.onDelivery(record, errors.New("leader not available"))

		out := buf.String()
		assert.Contains(t, out, "kafka event delivery failed")
		assert.Contains(t, out, "leader not available")
		assert.Contains(t, out, "issue-1")
	})

	t.Run("successful delivery stays quiet", func(t *testing.T) {
		var buf bytes.Buffer
		p := &KafkaPublisher{logger: slog.New(slog.NewTextHandler(&buf, nil))}

		p.onDelivery(record, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		p := &KafkaPublisher{}
		p.onDelivery(record, errors.New("boom"))
	})
}
