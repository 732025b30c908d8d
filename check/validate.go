package check

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Validated statuses.
const (
	StatusNoDataIssues        = "Success - no data issues"
	StatusInvestigateRecords  = "Failed - investigate returned records"
	StatusNoFailures          = "Success - no failures"
	StatusInvestigateFailures = "Failed - investigate failures"
	StatusFailureCountUnknown = "Warning - could not determine failure count"
	StatusNoTickets           = "Success - no tickets found"
	StatusInvestigateTickets  = "Failed - investigate returned tickets"
	StatusTicketCountUnknown  = "Warning - could not determine ticket count"
	StatusUnknownKind         = "Unknown - no validation logic for this type"
)

// ErrorStatus formats the status of a run that produced an error.
func ErrorStatus(message string) string {
	return StatusError + " - " + message
}

// Validate maps a raw result to its semantic status.
//
// The function is pure and never panics. Error documents
// ({"error": true, "message": ...}) yield ErrorStatus for every kind.
func Validate(kind Kind, result any) (status string) {
	defer func() {
		if r := recover(); r != nil {
			status = ErrorStatus(fmt.Sprint(r))
		}
	}()

	if kind == KindUnknown {
		return StatusUnknownKind
	}
	if msg, ok := ErrorMessage(result); ok {
		return ErrorStatus(msg)
	}

	switch kind {
	case KindWarehouse, KindRelational:
		n, err := rowCount(result)
		if err != nil {
			return ErrorStatus(err.Error())
		}
		if n > 0 {
			return StatusInvestigateRecords
		}
		return StatusNoDataIssues

	case KindOrchestration:
		summary, ok := result.(map[string]any)
		if !ok {
			return ErrorStatus(fmt.Sprintf("unexpected orchestration result %T", result))
		}
		failures, ok := summary["failures"].(map[string]any)
		if !ok {
			return StatusFailureCountUnknown
		}
		raw, ok := failures["totalFailures"]
		if !ok {
			return StatusFailureCountUnknown
		}
		total, err := toInt(raw)
		if err != nil {
			return ErrorStatus(err.Error())
		}
		if total > 0 {
			return StatusInvestigateFailures
		}
		return StatusNoFailures

	case KindIssueTracker:
		doc, ok := result.(map[string]any)
		if !ok {
			return ErrorStatus(fmt.Sprintf("unexpected issue result %T", result))
		}
		raw, ok := doc["total"]
		if !ok {
			return StatusTicketCountUnknown
		}
		total, err := toInt(raw)
		if err != nil {
			return ErrorStatus(err.Error())
		}
		if total > 0 {
			return StatusInvestigateTickets
		}
		return StatusNoTickets
	}

	return StatusUnknownKind
}

// ErrorMessage extracts the message of an error document.
func ErrorMessage(result any) (string, bool) {
	doc, ok := result.(map[string]any)
	if !ok {
		return "", false
	}
	if flag, _ := doc["error"].(bool); !flag {
		return "", false
	}
	if msg, _ := doc["message"].(string); msg != "" {
		return msg, true
	}
	return "unknown error", true
}

var errNoResult = errors.New("no result returned")

func rowCount(result any) (int, error) {
	if result == nil {
		return 0, errNoResult
	}
	switch rows := result.(type) {
	case []any:
		return len(rows), nil
	case []map[string]any:
		return len(rows), nil
	}
	v := reflect.ValueOf(result)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return v.Len(), nil
	}
	return 0, fmt.Errorf("expected an array of records, got %T", result)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("count %v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("count %q is not an integer", n.String())
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("count has unexpected type %T", v)
	}
}
