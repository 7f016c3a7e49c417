package application

import (
	"context"

	"dealerdesk/contexts/identity-access/account-admin-service/ports"
)

// ManagerCountGuard enforces the at-least-one-manager invariant on the
// demotion path. The count is over profile documents with is_manager true,
// not intersected with active status; a disabled manager still anchors the
// invariant until someone demotes it through this same pipeline.
//
// The read-count-then-write sequence is not serialized against concurrent
// demotions of different managers. Two demotions racing past a count of two
// can leave zero managers; this is an accepted, documented risk.
type ManagerCountGuard struct {
	Profiles ports.ProfileStore
}

func (g ManagerCountGuard) CountManagers(ctx context.Context) (int, error) {
	return g.Profiles.CountManagers(ctx)
}
