package justlog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level represents the severity of a log record.
// Higher values indicate more severe log levels.
type Level int32

// Severity levels, ordered from least to most severe.
//
// Disabled is not a severity: it is the sentinel used as a sink
// threshold to turn that sink off entirely. It is the zero value, so an
// unset StderrLevel or StoreLevel leaves that sink disabled.
const (
	Disabled Level = 0
	DEBUG    Level = 10
	INFO     Level = 20
	WARNING  Level = 30
	ERROR    Level = 40
	CRITICAL Level = 50
)

// String converts a Level to its string representation.
func (l Level) String() string {
	switch l {
	case Disabled:
		return "DISABLED"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name into a Level. Matching is
// case-insensitive and "WARN" is accepted as an alias for WARNING.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DISABLED", "OFF":
		return Disabled, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARNING, nil
	case "ERROR":
		return ERROR, nil
	case "CRITICAL", "FATAL":
		return CRITICAL, nil
	default:
		return Disabled, fmt.Errorf("invalid log level: %q", level)
	}
}

// MarshalJSON encodes the level as its name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level from its name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
