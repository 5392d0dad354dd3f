package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labmoura/laudos/internal/models"
)

type collector struct {
	mu   sync.Mutex
	logs []models.SystemLog
}

func (c *collector) flush(batch []models.SystemLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, batch...)
	return nil
}

func TestBatchHandlerPersistsErrors(t *testing.T) {
	col := &collector{}
	h := NewBatchHandler(col.flush, time.Hour)

	var out bytes.Buffer
	logger := slog.New(NewMultiHandler(slog.NewJSONHandler(&out, nil), h)).With("request_id", "req-1")

	logger.Info("report created", "report_id", "r1")
	logger.Error("unhandled server error",
		"path", "/api/reports",
		"actor_id", "a1",
		"error", errors.New("db down"),
		"method", "POST",
	)
	h.Stop()

	require.Len(t, col.logs, 1)
	entry := col.logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "unhandled server error", entry.Message)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "/api/reports", entry.Path)
	assert.Equal(t, "db down", entry.Error)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "a1", *entry.ActorID)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "POST", extra["method"])

	// Both records reach stdout.
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestJSONHandlerLevel(t *testing.T) {
	var out bytes.Buffer
	slog.New(NewJSONHandler(&out, "production")).Debug("hidden")
	assert.Zero(t, out.Len())

	slog.New(NewJSONHandler(&out, "development")).Debug("shown")
	assert.Contains(t, out.String(), "shown")
}
