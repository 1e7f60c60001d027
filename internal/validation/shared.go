package validation

import (
	"fmt"
	"strings"
)

// Error collects field-level validation failures for one request, keyed by
// the JSON field name ("entryPrice", "marginRate", ...). Handlers pass it
// through as the details of a 400 response so the frontend can highlight
// the offending form fields.
type Error struct {
	Fields map[string]string
}

// Error joins the field messages into a single "field: message" list.
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}
