package app

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainerCloseLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	var order []string
	c := &container{logger: slog.New(slog.NewTextHandler(&buf, nil))}
	c.closers = []closer{
		{name: "redis", close: func() error {
			order = append(order, "redis")
			return nil
		}},
		{name: "rabbitmq", close: func() error {
			order = append(order, "rabbitmq")
			return errors.New("channel already closed")
		}},
	}

	c.close()

	assert.Equal(t, []string{"rabbitmq", "redis"}, order)
	assert.Contains(t, buf.String(), "failed to close dependency")
	assert.Contains(t, buf.String(), "dependency=rabbitmq")
	assert.Contains(t, buf.String(), "channel already closed")
	assert.NotContains(t, buf.String(), "dependency=redis")
}
