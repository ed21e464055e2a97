package storage

import "launchscope/internal/model"

// LogSink is a sink for raw log records.
type LogSink interface {
	PutLogBatch(logs []model.LogRecord) error
}
