package entity

import (
	"fmt"
	"time"
)

// LogLevel is the severity of an extraction log entry.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// ParseLogLevel validates a level string coming from a query parameter.
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(s); l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return l, nil
	}
	return "", &ValidationError{Field: "level", Message: fmt.Sprintf("invalid level %q", s)}
}

// Log modules.
const (
	ModuleOrchestrator  = "orchestrator"
	ModulePdfIngestion  = "pdf_ingestion"
	ModuleExternalFetch = "external_fetch"
	ModuleContent       = "content"
)

// LogEntry is one append-only record in the extraction log.
type LogEntry struct {
	ID        int64
	Timestamp time.Time
	Level     LogLevel
	Module    string
	Message   string
	JobID     string
	Details   map[string]string
}
