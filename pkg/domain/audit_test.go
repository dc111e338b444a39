package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventCalculateHashDeterminism(t *testing.T) {
	event := &Event{
		ID:        "e1",
		Action:    ActionProjectCreated,
		Actor:     "alice",
		Timestamp: time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC),
		Metadata:  map[string]interface{}{"b": 2, "a": "x"},
		PrevHash:  "prev",
	}

	first := event.CalculateHash()
	if first != event.CalculateHash() {
		t.Fatal("expected deterministic hash")
	}

	event.ID = "e2"
	if first == event.CalculateHash() {
		t.Fatal("hash should change when ID changes")
	}
}

func TestEventCalculateHashSurvivesJSON(t *testing.T) {
	event := Event{
		ID:        "e1",
		Action:    ActionEmployeeAdded,
		Actor:     "bob",
		Timestamp: time.Now(),
		Metadata:  map[string]interface{}{"project_id": "p1"},
	}
	event.Hash = event.CalculateHash()

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.CalculateHash() != event.Hash {
		t.Error("hash changed after a JSON round trip")
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got := canonicalJSON(map[string]interface{}{"z": 1, "a": "b"})
	if got != `{"a":"b","z":1}` {
		t.Errorf("canonicalJSON = %s", got)
	}
	if canonicalJSON(nil) != "" {
		t.Error("empty metadata should encode to an empty string")
	}
}
