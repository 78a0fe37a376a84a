package cache

import (
	"fmt"

	"github.com/backlot-hq/backlot-backend/types"
)

// Scope is a cache key identifying one derived view of the entry store.
// Every mutation declares, through MutationScopes, exactly the scope set it
// can affect; nothing else is ever invalidated.
type Scope string

// EntryListScope covers the cached entry collection for one project and
// kind. Aggregates are always re-derived from this collection, never cached
// on their own.
func EntryListScope(projectID string, kind types.EntryKind) Scope {
	return Scope(fmt.Sprintf("entries:%s:%s", projectID, kind))
}

// PendingCountScope covers the project-wide pending-approval counter shown
// on approver dashboards, which reads entries of every kind.
func PendingCountScope(projectID string) Scope {
	return Scope(fmt.Sprintf("pending:%s", projectID))
}

// MutationScopes is the invalidation contract: the full set of scopes any
// entry mutation in (projectID, kind) can affect. Unrelated projects and
// kinds never appear here.
func MutationScopes(projectID string, kind types.EntryKind) []Scope {
	return []Scope{
		EntryListScope(projectID, kind),
		PendingCountScope(projectID),
	}
}
