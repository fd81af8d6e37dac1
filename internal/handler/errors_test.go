package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"opsdesk/internal/domain"
	"opsdesk/internal/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "typed not-found",
			err:        &domain.NotFoundError{Message: "quotation missing"},
			wantStatus: 404,
		},
		{
			name:       "typed stale write",
			err:        domain.NewStaleWriteError(),
			wantStatus: 409,
		},
		{
			name:       "typed conflict",
			err:        &domain.ConflictError{Message: "display id taken"},
			wantStatus: 409,
		},
		{
			name:       "typed integrity",
			err:        &domain.ReconciliationIntegrityError{Message: "duplicate item id"},
			wantStatus: 422,
		},
		{
			name:       "typed sequence failure",
			err:        &domain.SequenceGenerationError{Message: "retries exhausted"},
			wantStatus: 500,
		},
		{
			name:       "wrapped validation sentinel",
			err:        fmt.Errorf("%w: name too long", domain.ErrValidation),
			wantStatus: 400,
		},
		{
			name:       "wrapped not-found sentinel",
			err:        fmt.Errorf("loading document: %w", domain.ErrNotFound),
			wantStatus: 404,
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, testLogger(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var problem httputil.ProblemDetail
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("unmarshal problem: %v", err)
			}
			if problem.Status != tt.wantStatus {
				t.Errorf("problem status = %d, want %d", problem.Status, tt.wantStatus)
			}
		})
	}
}

func TestWriteError_UnknownErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, testLogger(), errors.New("password=hunter2 leaked into an error"))

	var problem httputil.ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("unmarshal problem: %v", err)
	}
	if problem.Detail != "internal server error" {
		t.Errorf("detail = %q, internal errors must not leak", problem.Detail)
	}
}
