package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLifecycleStates(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	active := Active()
	if !active.IsActive() {
		t.Errorf("Active() is not active")
	}
	if _, ok := active.DeletedAt(); ok {
		t.Errorf("Active() reports a deletion time")
	}
	if active.Column() != nil {
		t.Errorf("Active().Column() = %v, want nil", active.Column())
	}

	deleted := Deleted(now)
	if deleted.IsActive() {
		t.Errorf("Deleted() is active")
	}
	if at, ok := deleted.DeletedAt(); !ok || !at.Equal(now) {
		t.Errorf("DeletedAt() = %v, %v; want %v, true", at, ok, now)
	}
	if col := deleted.Column(); col == nil || !col.Equal(now) {
		t.Errorf("Column() = %v, want %v", col, now)
	}
}

func TestLifecycleFromColumn(t *testing.T) {
	if !LifecycleFromColumn(nil).IsActive() {
		t.Errorf("nil column should map to active")
	}

	now := time.Now().UTC()
	lc := LifecycleFromColumn(&now)
	if lc.IsActive() {
		t.Errorf("non-nil column should map to deleted")
	}

	// The lifecycle must not alias the caller's pointer.
	now = now.Add(time.Hour)
	if at, _ := lc.DeletedAt(); at.Equal(now) {
		t.Errorf("lifecycle aliases the caller's time value")
	}
}

func TestLifecycleJSON(t *testing.T) {
	b, err := json.Marshal(Active())
	if err != nil {
		t.Fatalf("marshal active: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("active marshals to %s, want null", b)
	}

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	b, err = json.Marshal(Deleted(at))
	if err != nil {
		t.Fatalf("marshal deleted: %v", err)
	}

	var lc Lifecycle
	if err := json.Unmarshal(b, &lc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := lc.DeletedAt(); !ok || !got.Equal(at) {
		t.Errorf("round trip = %v, %v; want %v, true", got, ok, at)
	}

	if err := json.Unmarshal([]byte("null"), &lc); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !lc.IsActive() {
		t.Errorf("null did not unmarshal to active")
	}
}
