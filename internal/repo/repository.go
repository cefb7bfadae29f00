package repo

import (
	"context"

	"github.com/hamed0406/bengreen/internal/domain"
)

// RunStore keeps probe runs made through the API for the server's lifetime.
type RunStore interface {
	// Append assigns r.ID when empty.
	Append(ctx context.Context, r *domain.Run) error
	// List returns runs oldest first.
	List(ctx context.Context) ([]domain.Run, error)
	// LastByProbe returns nil, nil if the probe never ran.
	LastByProbe(ctx context.Context, probe string) (*domain.Run, error)
}
