package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/event"

	"github.com/giftlink/backend/internal/metrics"
)

type commandTracer struct {
	metrics *metrics.Metrics
}

// NewCommandMonitor returns a driver monitor that logs commands at trace level
// and records their latency. m may be nil.
func NewCommandMonitor(m *metrics.Metrics) *event.CommandMonitor {
	t := &commandTracer{metrics: m}
	return &event.CommandMonitor{
		Started:   t.started,
		Succeeded: t.succeeded,
		Failed:    t.failed,
	}
}

func (t *commandTracer) started(_ context.Context, evt *event.CommandStartedEvent) {
	e := log.Trace()
	if !e.Enabled() {
		return
	}
	e.Str("command", evt.CommandName).
		Str("database", evt.DatabaseName).
		Int64("request_id", evt.RequestID).
		Str("body", evt.Command.String()).
		Msg("MongoDB command started")
}

func (t *commandTracer) succeeded(_ context.Context, evt *event.CommandSucceededEvent) {
	d := time.Duration(evt.DurationNanos)
	t.observe(evt.CommandName, "success", d)

	log.Trace().
		Str("command", evt.CommandName).
		Int64("request_id", evt.RequestID).
		Dur("duration", d).
		Msg("MongoDB command succeeded")
}

func (t *commandTracer) failed(_ context.Context, evt *event.CommandFailedEvent) {
	d := time.Duration(evt.DurationNanos)
	t.observe(evt.CommandName, "failure", d)

	log.Debug().
		Str("command", evt.CommandName).
		Int64("request_id", evt.RequestID).
		Dur("duration", d).
		Str("failure", evt.Failure).
		Msg("MongoDB command failed")
}

func (t *commandTracer) observe(command, outcome string, d time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.MongoCommands.WithLabelValues(command, outcome).Observe(d.Seconds())
}
