package models

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Valid reports whether the level is one the collector accepts.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// LogEntryData is the client-side payload of a log entry, before the
// collector assigns it an identity.
type LogEntryData struct {
	Level   Level                  `json:"level"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// LogEntry is a collector-owned log entry: the payload plus the identity
// assigned server-side. The agent only ever receives these.
type LogEntry struct {
	LogEntryData
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	ProjectID string `json:"projectId"`
	LoggerID  string `json:"loggerId"`
}

// QueryOptions filters a log query. Nil fields are omitted from the
// request, never defaulted client-side.
type QueryOptions struct {
	Hours     *int
	Offset    *int
	Limit     *int
	ProjectID string
}

// QueryResponse is the collector's answer to a log query.
type QueryResponse struct {
	Count int        `json:"count"`
	Data  []LogEntry `json:"data"`
}
