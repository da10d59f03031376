// Package access decides what an authenticated caller may do with issues.
//
// Every rule lives in one table keyed by role and action; handlers and
// services never compare roles themselves.
package access

import (
	"campusdesk-be/errs"
	"campusdesk-be/models"
)

// Identity is the verified caller carried by a token.
type Identity struct {
	UserID string
	Role   models.Role
}

func (id Identity) IsAdmin() bool { return id.Role == models.RoleAdmin }

type Action string

const (
	CreateIssue Action = "create_issue"
	ListIssues  Action = "list_issues"
	ViewStats   Action = "view_stats"
	EditIssue   Action = "edit_issue"
	DeleteIssue Action = "delete_issue"
	SetStatus   Action = "set_status"
)

// Scope is the set of issues an allowed action may touch.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

var rules = map[models.Role]map[Action]Scope{
	models.RoleStudent: {
		CreateIssue: ScopeOwn,
		ListIssues:  ScopeOwn,
		EditIssue:   ScopeOwn,
		DeleteIssue: ScopeOwn,
	},
	models.RoleAdmin: {
		ListIssues:  ScopeAll,
		ViewStats:   ScopeAll,
		EditIssue:   ScopeAll,
		DeleteIssue: ScopeAll,
		SetStatus:   ScopeAll,
	},
}

// Decide returns the scope granted to role for action. Unknown roles and
// unlisted actions get ScopeNone.
func Decide(role models.Role, action Action) Scope {
	return rules[role][action]
}

// Authorize returns the caller's scope for action, or a Forbidden error.
func Authorize(id Identity, action Action) (Scope, error) {
	if id.UserID == "" {
		return ScopeNone, errs.Unauthenticated("Not authenticated")
	}
	scope := Decide(id.Role, action)
	if scope == ScopeNone {
		return ScopeNone, errs.Forbidden("Access denied")
	}
	return scope, nil
}

// CheckOwnership authorizes action against a record owned by ownerID.
// A caller limited to their own records gets NotFound for anyone else's,
// so the record's existence is not disclosed.
func CheckOwnership(id Identity, action Action, ownerID string) error {
	scope, err := Authorize(id, action)
	if err != nil {
		return err
	}
	if scope == ScopeOwn && ownerID != id.UserID {
		return errs.NotFound("Issue not found or unauthorized")
	}
	return nil
}
