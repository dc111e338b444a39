package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/portfoliohq/portfolio/pkg/domain"
)

// RecordEvent appends one chained event to the audit trail. Only the
// project actions defined in the domain package are accepted.
func (r *FilesystemRepository) RecordEvent(event domain.Event) error {
	if !domain.IsKnownAction(event.Action) {
		return &Error{Op: "append", Path: AuditFile, Err: fmt.Errorf("unknown audit action %q", event.Action)}
	}
	path, err := r.ResolvePath(AuditFile)
	if err != nil {
		return err
	}

	line, err := json.Marshal(event)
	if err != nil {
		return &Error{Op: "encode", Path: AuditFile, Err: err}
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return &Error{Op: "append", Path: AuditFile, Err: err}
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return &Error{Op: "append", Path: AuditFile, Err: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Op: "append", Path: AuditFile, Err: err}
	}
	return nil
}

// LoadEvents reads the audit trail in append order. A line that does not
// decode to a project event fails the whole read with its line number, so a
// damaged trail is never verified as intact.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	data, err := r.readFile(context.Background(), AuditFile)
	if err != nil {
		return nil, &Error{Op: "read", Path: AuditFile, Err: err}
	}

	events := make([]domain.Event, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		event, err := decodeEvent(line)
		if err != nil {
			return nil, &Error{Op: "decode", Path: fmt.Sprintf("%s:%d", AuditFile, n), Err: err}
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Op: "read", Path: AuditFile, Err: err}
	}
	return events, nil
}

func decodeEvent(line []byte) (domain.Event, error) {
	var e domain.Event
	if err := json.Unmarshal(line, &e); err != nil {
		return e, err
	}
	if e.ID == "" {
		return e, fmt.Errorf("event has no id")
	}
	if !domain.IsKnownAction(e.Action) {
		return e, fmt.Errorf("event %s has unknown action %q", e.ID, e.Action)
	}
	return e, nil
}
