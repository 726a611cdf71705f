package progress

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes progress events to a zap logger. Fetch-level events are
// logged at debug to keep production output to run boundaries.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink builds a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{log: logger}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.URL != "" {
			fields = append(fields, zap.String("url", evt.URL))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("elapsed", evt.Dur))
		}
		switch evt.Stage {
		case StageRunStart:
			s.log.Info("run started", fields...)
		case StageRunDone:
			fields = append(fields, zap.Int("pages", evt.Pages), zap.Int("failures", evt.Failures))
			s.log.Info("run completed", fields...)
		case StageFetchFail:
			fields = append(fields, zap.String("reason", evt.Note))
			s.log.Debug("fetch failed", fields...)
		default:
			s.log.Debug("progress", fields...)
		}
	}
	return nil
}

// Close implements Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}
