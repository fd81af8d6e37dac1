package service

import (
	"time"

	"opsdesk/internal/domain"
)

// CheckFreshness is the optimistic-lock guard. lastKnown is the modified_at
// value the client last observed; nil means the caller opted out and the
// write proceeds unconditionally. A strictly earlier lastKnown means the
// document changed under the client and the edit is rejected; equal passes.
//
// Comparison happens at microsecond precision, the resolution Postgres
// stores for timestamps. Two legitimate writes landing in the same
// microsecond pass the check; the row lock held by the write transaction
// still serializes them, so this degrades to a benign overwrite rather than
// a torn write.
func CheckFreshness(lastKnown *time.Time, current time.Time) error {
	if lastKnown == nil {
		return nil
	}
	if lastKnown.Truncate(time.Microsecond).Before(current.Truncate(time.Microsecond)) {
		return domain.NewStaleWriteError()
	}
	return nil
}

// nextModifiedAt produces a version token strictly later than current, even
// when the wall clock has not measurably advanced since the last write.
func nextModifiedAt(current time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(current) {
		return current.Add(time.Microsecond)
	}
	return now
}
