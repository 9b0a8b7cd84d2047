// Package policy decides whether an authenticated identity may perform an
// action on a resource. Rules live in a single table; a missing entry denies.
package policy

import (
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type Resource string

const (
	ResourceUser       Resource = "user"
	ResourceClient     Resource = "client"
	ResourceContract   Resource = "contract"
	ResourceHistory    Resource = "history"
	ResourceStatistics Resource = "statistics"
	ResourceExport     Resource = "export"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// NoOwner is passed as the owner id when the action is not tied to a record.
const NoOwner int64 = 0

type rule func(actor domain.Identity, ownerID int64) bool

func adminOnly(actor domain.Identity, _ int64) bool {
	return actor.IsAdmin()
}

func ownerOrAdmin(actor domain.Identity, ownerID int64) bool {
	return actor.IsAdmin() || (ownerID != NoOwner && actor.ID == ownerID)
}

func anyAuthenticated(actor domain.Identity, _ int64) bool {
	return actor.ID != 0
}

// For contracts the owner id is the owner of the contract's client.
var rules = map[Resource]map[Action]rule{
	ResourceUser: {
		ActionCreate: adminOnly,
		ActionRead:   adminOnly,
		ActionUpdate: adminOnly,
		ActionDelete: adminOnly,
		ActionList:   adminOnly,
	},
	ResourceClient: {
		ActionCreate: anyAuthenticated,
		ActionRead:   ownerOrAdmin,
		ActionUpdate: ownerOrAdmin,
		ActionDelete: adminOnly,
		ActionList:   anyAuthenticated,
	},
	ResourceContract: {
		ActionCreate: ownerOrAdmin,
		ActionRead:   ownerOrAdmin,
		ActionUpdate: ownerOrAdmin,
		ActionDelete: adminOnly,
		ActionList:   anyAuthenticated,
	},
	ResourceHistory: {
		ActionRead: adminOnly,
		ActionList: adminOnly,
	},
	ResourceStatistics: {
		ActionRead: adminOnly,
	},
	ResourceExport: {
		ActionRead: adminOnly,
	},
}

// Allowed reports whether actor may perform act on res owned by ownerID.
func Allowed(actor domain.Identity, res Resource, act Action, ownerID int64) bool {
	r, ok := rules[res][act]
	if !ok {
		return false
	}
	return r(actor, ownerID)
}

// Authorize returns domain.ErrForbidden when Allowed is false.
func Authorize(actor domain.Identity, res Resource, act Action, ownerID int64) error {
	if !Allowed(actor, res, act, ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

// ScopeClients narrows a client filter to what actor may list. Salespeople are
// always restricted to their own records whatever owner was requested.
func ScopeClients(actor domain.Identity, f query.ClientFilter) query.ClientFilter {
	if actor.IsAdmin() {
		return f
	}
	return f.With(query.OwnedBy(actor.ID))
}
