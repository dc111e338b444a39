// Package domain holds the cross-cutting audit trail types shared by the
// project services.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sort"
	"time"
)

// Audit actions recorded by the project services.
const (
	ActionProjectCreated       = "project.created"
	ActionProjectDeleted       = "project.deleted"
	ActionGoalStatusUpdated    = "goal.status_updated"
	ActionGoalDeadlineUpdated  = "goal.deadline_updated"
	ActionRatingUpdated        = "project.rating_updated"
	ActionCompletionDateSet    = "project.completion_date_set"
	ActionEmployeesTransferred = "project.employees_transferred"
	ActionEmployeeAdded        = "project.employee_added"
	ActionEmployeeRemoved      = "project.employee_removed"
	ActionDependenciesLinked   = "dependencies.linked"
	ActionCatalogReplaced      = "catalog.replaced"
)

var knownActions = []string{
	ActionProjectCreated,
	ActionProjectDeleted,
	ActionGoalStatusUpdated,
	ActionGoalDeadlineUpdated,
	ActionRatingUpdated,
	ActionCompletionDateSet,
	ActionEmployeesTransferred,
	ActionEmployeeAdded,
	ActionEmployeeRemoved,
	ActionDependenciesLinked,
	ActionCatalogReplaced,
}

// IsKnownAction reports whether action is one of the recorded audit actions.
func IsKnownAction(action string) bool {
	return slices.Contains(knownActions, action)
}

// Event is one entry of the hash-chained audit trail.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PrevHash  string                 `json:"prev_hash,omitempty"`
	Hash      string                 `json:"hash,omitempty"`
}

// CalculateHash returns the SHA-256 over the previous hash and the event's
// content, with metadata keys in sorted order.
func (e *Event) CalculateHash() string {
	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.ID))
	h.Write([]byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte(e.Action))
	h.Write([]byte(e.Actor))
	h.Write([]byte(canonicalJSON(e.Metadata)))
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]byte, 0, 256)
	out = append(out, '{')
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		out = append(out, keyJSON...)
		out = append(out, ':')
		out = append(out, valJSON...)
	}
	out = append(out, '}')
	return string(out)
}

// AuditLogger records audit events. Services depend on this interface.
type AuditLogger interface {
	Log(action string, actor string, metadata map[string]interface{}) error
}

// AuditRepository persists audit events.
type AuditRepository interface {
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
}
