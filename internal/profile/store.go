// Package profile talks to the profile store collaborator: an opaque
// key-value service keyed by authenticated user id.
package profile

import (
	"context"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

// Store reads and updates coaching profiles.
type Store interface {
	Get(ctx context.Context, userID string) (domain.UserProfile, error)
	Update(ctx context.Context, userID string, update domain.ProfileUpdate) error
}
