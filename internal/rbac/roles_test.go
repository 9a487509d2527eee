package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/rbac"
)

func TestAllows(t *testing.T) {
	cases := []struct {
		held     string
		required string
		want     bool
	}{
		{rbac.RoleSuperadmin, rbac.RoleStaff, true},
		{rbac.RoleSuperadmin, rbac.RoleAdmin, true},
		{rbac.RoleSuperadmin, rbac.RoleSuperadmin, true},
		{rbac.RoleAdmin, rbac.RoleStaff, true},
		{rbac.RoleAdmin, rbac.RoleAdmin, true},
		{rbac.RoleAdmin, rbac.RoleSuperadmin, false},
		{rbac.RoleStaff, rbac.RoleStaff, true},
		{rbac.RoleStaff, rbac.RoleAdmin, false},
		{"", rbac.RoleStaff, false},
		{"intern", rbac.RoleStaff, false},
		{"ADMIN", rbac.RoleStaff, true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, rbac.Allows(tc.held, tc.required), "held=%q required=%q", tc.held, tc.required)
	}
}

func TestValid(t *testing.T) {
	require.True(t, rbac.Valid("staff"))
	require.True(t, rbac.Valid(" Superadmin "))
	require.False(t, rbac.Valid("root"))
	require.False(t, rbac.Valid(""))
}
