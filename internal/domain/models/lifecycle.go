package models

import (
	"encoding/json"
	"time"
)

// Lifecycle is the deletion state of a document: Active, or Deleted with
// the time the soft delete happened. Modeling this as a closed two-state
// type (instead of a bare nullable timestamp) keeps missed soft-delete
// filters visible at the type level.
type Lifecycle struct {
	deletedAt *time.Time
}

// Active returns the lifecycle of a live document.
func Active() Lifecycle {
	return Lifecycle{}
}

// Deleted returns the lifecycle of a document soft-deleted at the given time.
func Deleted(at time.Time) Lifecycle {
	return Lifecycle{deletedAt: &at}
}

// LifecycleFromColumn maps a nullable deleted_at column value onto a Lifecycle.
func LifecycleFromColumn(at *time.Time) Lifecycle {
	if at == nil {
		return Lifecycle{}
	}
	t := *at
	return Lifecycle{deletedAt: &t}
}

// IsActive reports whether the document has not been soft-deleted.
func (l Lifecycle) IsActive() bool {
	return l.deletedAt == nil
}

// DeletedAt returns the soft-delete time. ok is false for active documents.
func (l Lifecycle) DeletedAt() (at time.Time, ok bool) {
	if l.deletedAt == nil {
		return time.Time{}, false
	}
	return *l.deletedAt, true
}

// Column returns the value stored in the nullable deleted_at column.
func (l Lifecycle) Column() *time.Time {
	if l.deletedAt == nil {
		return nil
	}
	t := *l.deletedAt
	return &t
}

// MarshalJSON renders the lifecycle as the deleted_at value (null when active).
func (l Lifecycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.deletedAt)
}

// UnmarshalJSON accepts the nullable deleted_at representation.
func (l *Lifecycle) UnmarshalJSON(data []byte) error {
	var at *time.Time
	if err := json.Unmarshal(data, &at); err != nil {
		return err
	}
	*l = LifecycleFromColumn(at)
	return nil
}
