package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// Log level constants define the severity hierarchy for filtering log output
const (
	DEBUG LogLevel = iota // DEBUG is the lowest severity level for detailed diagnostics
	INFO                  // INFO is for general informational messages
	WARN                  // WARN is for warning messages that don't prevent operation
	ERROR                 // ERROR is the highest severity for error conditions
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a string to a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging with configurable levels
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
	prefix string
}

// New creates a new Logger with the specified level
func New(level LogLevel, prefix string) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(os.Stderr, "", log.LstdFlags),
		prefix: prefix,
	}
}

// NewWithWriter creates a new Logger with custom output writer
func NewWithWriter(level LogLevel, prefix string, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		prefix: prefix,
	}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// shouldLog checks if a message at the given level should be logged
func (l *Logger) shouldLog(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// log writes a log message with the given level and fields
func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	// Build structured log message
	var sb strings.Builder

	// Add prefix if set
	if l.prefix != "" {
		sb.WriteString(l.prefix)
		sb.WriteString(" ")
	}

	// Add level
	sb.WriteString(level.String())
	sb.WriteString(": ")

	// Add message
	sb.WriteString(msg)

	// Add fields
	if len(fields) > 0 {
		sb.WriteString(" |")
		for k, v := range fields {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}

	l.logger.Println(sb.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.log(ERROR, msg, fields)
}

// AggregationEvent represents a type of catalog aggregation event
type AggregationEvent string

// Aggregation event constants identify the lifecycle of a catalog rebuild
const (
	EventAggregationStarted    AggregationEvent = "aggregation_started"    // EventAggregationStarted indicates a full catalog rebuild began
	EventAggregationFinished   AggregationEvent = "aggregation_finished"   // EventAggregationFinished indicates a rebuild committed its results
	EventAggregationSuperseded AggregationEvent = "aggregation_superseded" // EventAggregationSuperseded indicates a rebuild was discarded as stale
	EventPlaylistFetchFailed   AggregationEvent = "playlist_fetch_failed"  // EventPlaylistFetchFailed indicates one playlist source could not be loaded
	EventStaleCacheServed      AggregationEvent = "stale_cache_served"     // EventStaleCacheServed indicates cached content substituted for a dead source
)

// LogAggregationStarted logs the start of a catalog rebuild (DEBUG level)
func (l *Logger) LogAggregationStarted(generation uint64, playlists int) {
	l.Debug("Aggregation started", map[string]interface{}{
		"event":      EventAggregationStarted,
		"generation": generation,
		"playlists":  playlists,
	})
}

// LogAggregationFinished logs a committed catalog rebuild (INFO level)
func (l *Logger) LogAggregationFinished(generation uint64, channels int, took time.Duration) {
	l.Info("Aggregation finished", map[string]interface{}{
		"event":      EventAggregationFinished,
		"generation": generation,
		"channels":   channels,
		"took":       took.String(),
	})
}

// LogAggregationSuperseded logs a rebuild discarded because a newer
// mutation started after it (INFO level)
func (l *Logger) LogAggregationSuperseded(generation, current uint64) {
	l.Info("Aggregation superseded", map[string]interface{}{
		"event":      EventAggregationSuperseded,
		"generation": generation,
		"current":    current,
	})
}

// LogPlaylistFetchFailed logs a per-playlist source failure (WARN level)
func (l *Logger) LogPlaylistFetchFailed(playlistName string, err error) {
	l.Warn("Playlist fetch failed", map[string]interface{}{
		"event":    EventPlaylistFetchFailed,
		"playlist": playlistName,
		"error":    err.Error(),
	})
}

// LogStaleCacheServed logs a background reload served from cache (WARN level)
func (l *Logger) LogStaleCacheServed(playlistName string) {
	l.Warn("Serving stale cached playlist", map[string]interface{}{
		"event":    EventStaleCacheServed,
		"playlist": playlistName,
	})
}
