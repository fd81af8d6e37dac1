package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"opsdesk/internal/domain/models"
)

func seedNamedDoc(t *testing.T, repo *fakeDocumentRepo, kind models.Kind, name, displayID string, lc models.Lifecycle) uuid.UUID {
	t.Helper()
	doc := &models.Document{
		ID:          uuid.New(),
		Kind:        kind,
		DisplayID:   displayID,
		DisplayName: name,
		Status:      "draft",
		Lifecycle:   lc,
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document %q: %v", name, err)
	}
	return doc.ID
}

func TestNameResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string // active documents of the same kind
		candidate string
		want      string
	}{
		{
			name:      "no collision returns candidate unchanged",
			existing:  nil,
			candidate: "Acme Corp",
			want:      "Acme Corp",
		},
		{
			name:      "one collision appends 02",
			existing:  []string{"Acme Corp"},
			candidate: "Acme Corp",
			want:      "Acme Corp 02",
		},
		{
			name:      "collisions at base, 02 and 03 yield 04",
			existing:  []string{"Acme Corp", "Acme Corp 02", "Acme Corp 03"},
			candidate: "Acme Corp",
			want:      "Acme Corp 04",
		},
		{
			name:      "gap in suffixes is reused",
			existing:  []string{"Acme Corp", "Acme Corp 03"},
			candidate: "Acme Corp",
			want:      "Acme Corp 02",
		},
		{
			name:      "empty name passes through without a check",
			existing:  []string{""},
			candidate: "",
			want:      "",
		},
		{
			name:      "whitespace-only name passes through",
			existing:  []string{"   "},
			candidate: "   ",
			want:      "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeDocumentRepo()
			for i, name := range tt.existing {
				seedNamedDoc(t, repo, models.KindQuotation, name,
					models.FormatDisplayID("QTN", 2025, i+1), models.Active())
			}

			got, err := NewNameResolver(repo).Resolve(context.Background(), models.KindQuotation, tt.candidate, uuid.Nil)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestNameResolver_SoftDeletedNamesDoNotCollide(t *testing.T) {
	repo := newFakeDocumentRepo()
	seedNamedDoc(t, repo, models.KindInvoice, "Acme Corp", "INV-2025-0001", models.Deleted(time.Now()))

	got, err := NewNameResolver(repo).Resolve(context.Background(), models.KindInvoice, "Acme Corp", uuid.Nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Acme Corp" {
		t.Errorf("Resolve = %q, want %q (deleted rows are not collisions)", got, "Acme Corp")
	}
}

func TestNameResolver_OtherKindsDoNotCollide(t *testing.T) {
	repo := newFakeDocumentRepo()
	seedNamedDoc(t, repo, models.KindInvoice, "Acme Corp", "INV-2025-0001", models.Active())

	got, err := NewNameResolver(repo).Resolve(context.Background(), models.KindQuotation, "Acme Corp", uuid.Nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Acme Corp" {
		t.Errorf("Resolve = %q, want %q (uniqueness is per kind)", got, "Acme Corp")
	}
}

func TestNameResolver_ExcludesOwnDocumentOnRename(t *testing.T) {
	repo := newFakeDocumentRepo()
	id := seedNamedDoc(t, repo, models.KindExpense, "Acme Corp", "EXP-2025-0001", models.Active())

	// Saving a document under its own current name is not a collision.
	got, err := NewNameResolver(repo).Resolve(context.Background(), models.KindExpense, "Acme Corp", id)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Acme Corp" {
		t.Errorf("Resolve = %q, want %q (own row excluded)", got, "Acme Corp")
	}
}
