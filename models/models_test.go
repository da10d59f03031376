package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumsAreClosed(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, IssueCategory("Hostel").Valid())
	assert.False(t, IssueCategory("").Valid())

	assert.True(t, Pending.Valid())
	assert.True(t, Resolved.Valid())
	assert.False(t, IssueStatus("in_progress").Valid())

	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
}

func TestPasswordHashing(t *testing.T) {
	u := &User{Password: "secret123"}
	require.NoError(t, u.HashPassword())
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.ComparePassword("secret123"))
	assert.False(t, u.ComparePassword("secret124"))
}

func TestUserJSONHidesPassword(t *testing.T) {
	out, err := json.Marshal(User{Name: "Asha", Password: "hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
	assert.NotContains(t, string(out), "password")
}

func TestPendingNotice(t *testing.T) {
	assert.True(t, (&Issue{Status: Resolved}).PendingNotice())
	assert.False(t, (&Issue{Status: Resolved, Notified: true}).PendingNotice())
	assert.False(t, (&Issue{Status: Pending}).PendingNotice())
}
