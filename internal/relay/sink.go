package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Delivery is a projected notice ready for output.
type Delivery struct {
	ID         string
	Type       string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// Sink receives every successfully projected notice.
type Sink interface {
	// Name identifies the sink in logs, metrics and results.
	Name() string
	// Deliver stores or forwards d. Errors are logged and counted by the
	// relay; they do not fail the projection.
	Deliver(ctx context.Context, d Delivery) error
}

// LogSink writes each delivery as a structured log line.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a sink writing to log at info level.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("sink", "log").Logger()}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, d Delivery) error {
	s.log.Info().
		Str("id", d.ID).
		Str("type", d.Type).
		Time("received_at", d.ReceivedAt).
		RawJSON("notice", d.Payload).
		Msg("notice")
	return nil
}
