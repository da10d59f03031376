package access

import (
	"errors"
	"testing"

	"campusdesk-be/errs"
	"campusdesk-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideTable(t *testing.T) {
	cases := []struct {
		role   models.Role
		action Action
		want   Scope
	}{
		{models.RoleStudent, CreateIssue, ScopeOwn},
		{models.RoleStudent, ListIssues, ScopeOwn},
		{models.RoleStudent, ViewStats, ScopeNone},
		{models.RoleStudent, EditIssue, ScopeOwn},
		{models.RoleStudent, DeleteIssue, ScopeOwn},
		{models.RoleStudent, SetStatus, ScopeNone},
		{models.RoleAdmin, CreateIssue, ScopeNone},
		{models.RoleAdmin, ListIssues, ScopeAll},
		{models.RoleAdmin, ViewStats, ScopeAll},
		{models.RoleAdmin, EditIssue, ScopeAll},
		{models.RoleAdmin, DeleteIssue, ScopeAll},
		{models.RoleAdmin, SetStatus, ScopeAll},
		{models.Role("janitor"), ListIssues, ScopeNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Decide(tc.role, tc.action), "%s/%s", tc.role, tc.action)
	}
}

func TestAuthorize(t *testing.T) {
	_, err := Authorize(Identity{UserID: "s1", Role: models.RoleStudent}, ViewStats)
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	_, err = Authorize(Identity{}, ListIssues)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))

	scope, err := Authorize(Identity{UserID: "a1", Role: models.RoleAdmin}, SetStatus)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, scope)
}

func TestCheckOwnership(t *testing.T) {
	student := Identity{UserID: "s1", Role: models.RoleStudent}
	admin := Identity{UserID: "a1", Role: models.RoleAdmin}

	assert.NoError(t, CheckOwnership(student, EditIssue, "s1"))
	assert.True(t, errors.Is(CheckOwnership(student, EditIssue, "s2"), errs.ErrNotFound))
	assert.True(t, errors.Is(CheckOwnership(student, DeleteIssue, "s2"), errs.ErrNotFound))
	assert.True(t, errors.Is(CheckOwnership(student, SetStatus, "s1"), errs.ErrForbidden))

	assert.NoError(t, CheckOwnership(admin, EditIssue, "s2"))
	assert.NoError(t, CheckOwnership(admin, DeleteIssue, "s2"))
}
