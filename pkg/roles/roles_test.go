package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLadderOrdering(t *testing.T) {
	require.Equal(t, []Role{RoleOwner, RoleAdmin, RoleModerator, RoleMember}, Ladder)

	assert.Equal(t, 0, RoleOwner.Index())
	assert.Equal(t, 1, RoleAdmin.Index())
	assert.Equal(t, 2, RoleModerator.Index())
	assert.Equal(t, 3, RoleMember.Index())
	assert.Equal(t, -1, Role("superuser").Index())
}

func TestParse(t *testing.T) {
	for _, role := range Ladder {
		parsed, err := Parse(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := Parse("superuser")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)

	// Case-sensitive by design; the API layer lowercases nothing.
	_, err = Parse("Owner")
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, Higher, Compare(RoleOwner, RoleAdmin))
	assert.Equal(t, Higher, Compare(RoleAdmin, RoleMember))
	assert.Equal(t, Equal, Compare(RoleModerator, RoleModerator))
	assert.Equal(t, Lower, Compare(RoleMember, RoleModerator))
	assert.Equal(t, Lower, Compare(RoleAdmin, RoleOwner))
}

func TestOutranksOrEquals(t *testing.T) {
	// Every role outranks or equals itself and everything below it.
	for i, higher := range Ladder {
		for j, lower := range Ladder {
			expected := i <= j
			assert.Equalf(t, expected, higher.OutranksOrEquals(lower),
				"%s vs %s", higher, lower)
		}
	}
}

func TestIsAdministrative(t *testing.T) {
	assert.True(t, RoleOwner.IsAdministrative())
	assert.True(t, RoleAdmin.IsAdministrative())
	assert.False(t, RoleModerator.IsAdministrative())
	assert.False(t, RoleMember.IsAdministrative())
}

func TestDefaultRole(t *testing.T) {
	assert.Equal(t, RoleMember, DefaultRole)
}
