package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexuscore/nexus/internal/security"
)

// SecurityAdapter narrows a Store down to security.Persistence, the shape
// the security core depends on so it never imports this package directly.
type SecurityAdapter struct {
	Store
}

var _ security.Persistence = SecurityAdapter{}

// AppendAudit builds an AuditEntry from the security core's plain
// action/actor/target call and appends it to the underlying Store.
func (a SecurityAdapter) AppendAudit(ctx context.Context, action, actorID, target string) error {
	return a.Store.AppendAudit(ctx, AuditEntry{
		ID:      uuid.NewString(),
		Action:  action,
		ActorID: actorID,
		Target:  target,
	})
}
