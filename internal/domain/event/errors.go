package event

import (
	"fmt"
	"strings"
)

// Violation describes a single violated field constraint.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// Violations is the full set of constraints a record violated. The
// validator never stops at the first violation.
type Violations []Violation

// Error implements error by joining every violation.
func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "schema violation: " + strings.Join(parts, "; ")
}

// Fields returns the violated field names in order.
func (vs Violations) Fields() []string {
	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = v.Field
	}
	return fields
}
