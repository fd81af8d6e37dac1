package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"opsdesk/internal/domain/models"
	"opsdesk/internal/domain/repositories"
)

// NameResolver disambiguates display names against other active documents of
// the same kind using numeric suffixes.
type NameResolver struct {
	documents repositories.DocumentRepository
}

// NewNameResolver creates a new display-name resolver.
func NewNameResolver(documents repositories.DocumentRepository) *NameResolver {
	return &NameResolver{documents: documents}
}

// Resolve returns candidate unchanged when no other active document of the
// kind uses it, otherwise the first free suffixed variant: " 02", " 03", …
// (two-digit padding through 09, natural width after). Blank names pass
// through without a check and are allowed to collide. Soft-deleted documents
// never count as collisions. excludeID skips the document being renamed.
//
// The check is not atomic with the subsequent insert: two concurrent creates
// can resolve to the same suffix before either commits. There is no unique
// constraint on display_name, so this is best-effort disambiguation, same as
// the dashboard has always behaved.
func (r *NameResolver) Resolve(ctx context.Context, kind models.Kind, candidate string, excludeID uuid.UUID) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return candidate, nil
	}

	name := candidate
	for n := 2; ; n++ {
		exists, err := r.documents.ActiveNameExists(ctx, kind, name, excludeID)
		if err != nil {
			return "", fmt.Errorf("check display name %q: %w", name, err)
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s %02d", candidate, n)
	}
}
