package common

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// levelRank orders levels for threshold filtering; unknown levels rank
// highest so they are never silently dropped.
func levelRank(level string) int {
	switch strings.ToUpper(level) {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	}
	return 4
}

// StreamLogger writes engine events to a stream as JSON or text lines,
// filtered by a minimum level. It is the human-readable counterpart of the
// durable job event log.
type StreamLogger struct {
	mu      sync.Mutex
	w       io.Writer
	minRank int
	json    bool
	clock   shared.Clock
}

// NewStreamLogger creates a stream logger. minLevel and format follow the
// logging config values (case-insensitive level; "json" or "text" format).
// If clock is nil, uses RealClock.
func NewStreamLogger(w io.Writer, minLevel, format string, clock shared.Clock) *StreamLogger {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &StreamLogger{
		w:       w,
		minRank: levelRank(minLevel),
		json:    format != "text",
		clock:   clock,
	}
}

// Log writes one line when the level clears the threshold
func (l *StreamLogger) Log(level, message string, metadata map[string]interface{}) {
	if levelRank(level) < l.minRank {
		return
	}
	ts := shared.FormatUTCTimestamp(l.clock.Now())

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.json {
		entry := map[string]interface{}{
			"ts":    ts,
			"level": level,
			"msg":   message,
		}
		for k, v := range metadata {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.w, string(data))
		}
		return
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", ts, level, message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	fmt.Fprintln(l.w, b.String())
}

// MultiLogger fans one event out to several sinks (stream + durable history)
type MultiLogger struct {
	sinks []EngineLogger
}

// NewMultiLogger creates a logger that forwards to every sink in order
func NewMultiLogger(sinks ...EngineLogger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log forwards the event to each sink
func (m *MultiLogger) Log(level, message string, metadata map[string]interface{}) {
	for _, sink := range m.sinks {
		sink.Log(level, message, metadata)
	}
}
