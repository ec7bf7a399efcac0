package monitor

import (
	"context"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

// LogSink logs every completed check cycle. Always wired so cycle outcomes
// are observable even when event publishing is disabled.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, item models.TrackedItem) {
	if item.LastStatus == nil {
		return
	}

	fields := []logger.Field{
		logger.String("url", item.URL),
		logger.String("category", string(item.Category)),
		logger.String("status", string(item.LastStatus.Status)),
		logger.String("message", item.LastStatus.Message),
	}
	if item.PreviewFailures > 0 {
		fields = append(fields, logger.Int("preview_failures", item.PreviewFailures))
	}

	if item.LastStatus.Status == models.StatusError {
		s.log.Warn("check cycle completed", fields...)
		return
	}
	s.log.Debug("check cycle completed", fields...)
}
