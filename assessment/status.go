package assessment

import "strings"

var statusAliases = map[string]Status{
	"fulfilled": StatusFulfilled,
	"compliant": StatusFulfilled,
	"yes":       StatusFulfilled,
	"passed":    StatusFulfilled,
	"pass":      StatusFulfilled,
	"completed": StatusFulfilled,
	"done":      StatusFulfilled,
	"green":     StatusFulfilled,
	"✓":         StatusFulfilled,

	"open":          StatusOpen,
	"non-compliant": StatusOpen,
	"non compliant": StatusOpen,
	"not compliant": StatusOpen,
	"no":            StatusOpen,
	"failed":        StatusOpen,
	"fail":          StatusOpen,
	"red":           StatusOpen,
	"✗":             StatusOpen,

	"not required":   StatusNotRequired,
	"not applicable": StatusNotRequired,
	"n/a":            StatusNotRequired,
	"na":             StatusNotRequired,
	"skip":           StatusNotRequired,
	"skipped":        StatusNotRequired,
	"grey":           StatusNotRequired,
	"gray":           StatusNotRequired,

	"not verified": StatusNotVerified,
	"not reviewed": StatusNotVerified,
	"pending":      StatusNotVerified,
	"todo":         StatusNotVerified,
	"unknown":      StatusNotVerified,
	"":             StatusNotVerified,
}

// NormalizeStatus maps a free-text status cell onto a canonical Status.
// Unrecognized values collapse to StatusNotVerified.
func NormalizeStatus(raw string) Status {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return st
	}
	return StatusNotVerified
}

// isStatusWord reports whether a cell is one of the recognized status values.
func isStatusWord(v string) bool {
	key := strings.ToLower(strings.TrimSpace(v))
	if key == "" {
		return false
	}
	_, ok := statusAliases[key]
	return ok
}
