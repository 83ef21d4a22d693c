package common_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func testClock() *shared.MockClock {
	return shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestStreamLogger_FiltersBelowMinimumLevel(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := common.NewStreamLogger(&buf, "warn", "text", testClock())

	// Act
	logger.Log(common.LogLevelInfo, "job started", nil)
	logger.Log(common.LogLevelWarn, "cancel raced completion", nil)
	logger.Log(common.LogLevelError, "completion failed", nil)

	// Assert
	out := buf.String()
	assert.NotContains(t, out, "job started")
	assert.Contains(t, out, "cancel raced completion")
	assert.Contains(t, out, "completion failed")
}

func TestStreamLogger_JSONFormat(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := common.NewStreamLogger(&buf, "info", "json", testClock())

	// Act
	logger.Log(common.LogLevelInfo, "job started", map[string]interface{}{"target": "building.barn.l1"})

	// Assert
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "job started", entry["msg"])
	assert.Equal(t, "building.barn.l1", entry["target"])
	assert.NotEmpty(t, entry["ts"])
}

func TestStreamLogger_TextFormatSortsMetadata(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := common.NewStreamLogger(&buf, "info", "text", testClock())

	// Act
	logger.Log(common.LogLevelWarn, "ghost job discarded", map[string]interface{}{
		"target": "building.barn.l1",
		"jobId":  "job-7",
	})

	// Assert: deterministic key order
	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "WARN ghost job discarded jobId=job-7 target=building.barn.l1")
}

func TestStreamLogger_DebugThresholdPassesEverything(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := common.NewStreamLogger(&buf, "debug", "text", testClock())

	// Act
	logger.Log(common.LogLevelDebug, "tick", nil)
	logger.Log(common.LogLevelInfo, "job started", nil)

	// Assert
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

type capturingLogger struct {
	levels []string
}

func (c *capturingLogger) Log(level, message string, metadata map[string]interface{}) {
	c.levels = append(c.levels, level)
}

func TestMultiLogger_FansOutToAllSinks(t *testing.T) {
	// Arrange
	first := &capturingLogger{}
	second := &capturingLogger{}
	logger := common.NewMultiLogger(first, second)

	// Act
	logger.Log(common.LogLevelInfo, "job started", nil)

	// Assert
	assert.Equal(t, []string{"INFO"}, first.levels)
	assert.Equal(t, []string{"INFO"}, second.levels)
}
