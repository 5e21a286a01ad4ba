package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCommand(t *testing.T) {
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("agenda add", "test", "ok"))
	RecordCommand("agenda add", "test", "ok", 0.002)
	RecordCommand("agenda add", "test", "ok", 0.004)
	after := testutil.ToFloat64(commandsTotal.WithLabelValues("agenda add", "test", "ok"))
	assert.Equal(t, before+2, after)
}

func TestRecordNotification(t *testing.T) {
	RecordNotification("topic", "failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(notificationsTotal.WithLabelValues("topic", "failed")))
}
