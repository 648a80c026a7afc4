package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

func TestTrackerDiscardsEvents(t *testing.T) {
	ctx := errors.WithQueryID(context.Background(), "q-1")

	for _, tracker := range []*Tracker{New(), NewLogging(logger.Nop())} {
		assert.NoError(t, tracker.CaptureError(ctx, errors.ErrTimeout, map[string]string{"agent": "junior"}))
		assert.NoError(t, tracker.CaptureMessage(ctx, "routed", errors.LevelInfo, nil))
		tracker.AddBreadcrumb(ctx, "tool call", "tool", errors.LevelInfo, map[string]interface{}{"symbol": "AAPL"})
		assert.NoError(t, tracker.Flush(ctx))
	}
}
