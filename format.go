package justlog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// format renders an entry according to the configured output format.
func (l *Logger) format(e Entry) []byte {
	if l.outputFormat == FormatJSON {
		return []byte(l.formatJSON(e))
	}
	return []byte(l.formatPlain(e))
}

// formatPlain renders an entry as a text line:
//
//	timestamp LEVEL message
//
// Positional args and named fields, when present, follow the line as an
// indented JSON object, so everything belonging to one call stays
// grouped beneath the line that introduced it.
func (l *Logger) formatPlain(e Entry) string {
	var builder strings.Builder
	builder.Grow(256)

	builder.WriteString(e.Time.Format(l.timestampFormat))
	builder.WriteByte(' ')
	builder.WriteString(e.Level.String())
	builder.WriteByte(' ')
	builder.WriteString(e.Message)

	if extras := e.extras(); len(extras) > 0 {
		data, err := json.MarshalIndent(extras, "", "    ")
		if err != nil {
			data, _ = json.MarshalIndent(coerceMap(extras), "", "    ")
		}
		builder.WriteByte('\n')
		builder.Write(data)
	}

	builder.WriteByte('\n')
	return builder.String()
}

// formatJSON renders an entry as a single JSON object. Named fields are
// merged into the top-level object and may shadow the standard keys.
func (l *Logger) formatJSON(e Entry) string {
	entry := make(map[string]interface{}, len(e.Fields)+4)
	entry["timestamp"] = e.Time.Format(l.timestampFormat)
	entry["level"] = e.Level.String()
	entry["message"] = e.Message
	if len(e.Args) > 0 {
		entry["args"] = e.Args
	}
	for k, v := range e.Fields {
		entry[k] = v
	}

	data, err := l.marshalEntry(entry)
	if err != nil {
		data, err = l.marshalEntry(coerceMap(entry))
		if err != nil {
			return fmt.Sprintf(`{"error":"failed to marshal log entry: %v"}`+"\n", err)
		}
	}
	return string(data) + "\n"
}

func (l *Logger) marshalEntry(entry map[string]interface{}) ([]byte, error) {
	if l.config.PrettyPrint {
		return json.MarshalIndent(entry, "", "  ")
	}
	return json.Marshal(entry)
}

// coerce replaces a value the JSON encoder rejects with its fmt
// rendering, recursing into slices so one bad element does not
// flatten its siblings. A log call never fails on an unencodable
// argument.
func coerce(v interface{}) interface{} {
	if _, err := json.Marshal(v); err == nil {
		return v
	}
	if s, ok := v.([]interface{}); ok {
		out := make([]interface{}, len(s))
		for i, el := range s {
			out[i] = coerce(el)
		}
		return out
	}
	return fmt.Sprintf("%v", v)
}

func coerceMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = coerce(v)
	}
	return out
}
