package complaint

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/shakwa/internal/domain"
)

const (
	referencePrefix = "REF-"
	referenceLength = 10

	// Collisions on 10 hex chars of a v4 UUID are effectively unreachable;
	// the retry cap exists so a broken store cannot spin forever.
	maxReferenceAttempts = 5
)

// ReferenceCandidate produces one human-friendly reference token:
// "REF-" followed by the first 10 hex characters of a v4 UUID, uppercased.
func ReferenceCandidate() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return referencePrefix + strings.ToUpper(raw[:referenceLength])
}

// uniqueReference generates a reference collision-checked against the store.
func (s *Service) uniqueReference(ctx context.Context) (string, error) {
	for range maxReferenceAttempts {
		ref := ReferenceCandidate()

		exists, err := s.store.Complaints().ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("complaint.uniqueReference: %w", err)
		}
		if !exists {
			return ref, nil
		}
	}

	return "", fmt.Errorf("complaint.uniqueReference: %w", domain.ErrDuplicateReference)
}
