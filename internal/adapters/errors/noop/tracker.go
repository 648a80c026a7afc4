package noop

import (
	"context"

	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// Tracker drops every event. With a logger attached it writes what would
// have been sent at debug level, which helps when SENTRY_DSN is unset.
type Tracker struct {
	log *logger.Logger
}

var _ errors.Tracker = (*Tracker)(nil)

// New creates a tracker that discards events silently.
func New() *Tracker {
	return &Tracker{}
}

// NewLogging creates a tracker that logs events at debug level.
func NewLogging(log *logger.Logger) *Tracker {
	return &Tracker{log: log.With("component", "error_tracker")}
}

func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	if t.log != nil {
		t.log.Debugw("Error not tracked", "error", err, "tags", tags, "query_id", queryID(ctx))
	}
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	if t.log != nil {
		t.log.Debugw("Message not tracked", "message", message, "level", level, "tags", tags, "query_id", queryID(ctx))
	}
	return nil
}

func (t *Tracker) AddBreadcrumb(_ context.Context, message string, category string, _ errors.Level, data map[string]interface{}) {
	if t.log != nil {
		t.log.Debugw("Breadcrumb", "category", category, "message", message, "data", data)
	}
}

func (t *Tracker) Flush(context.Context) error {
	return nil
}

func queryID(ctx context.Context) string {
	id, _ := errors.QueryIDFromContext(ctx)
	return id
}
