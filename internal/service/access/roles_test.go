package access

import (
	"context"
	"strings"
	"testing"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRole(t *testing.T) {
	svc, repo, _, rec := newRecordingService()

	role, err := svc.CreateRole(context.Background(), 1, &auth.RoleRequest{
		Name:        "  support ",
		Permissions: []string{auth.PermDomainsView, " reports-export", auth.PermDomainsView, ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "support", role.Name)
	assert.Equal(t, []string{auth.PermDomainsView, "reports-export"}, []string(role.Permissions))
	assert.Equal(t, "support", repo.roles[role.ID].Name)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, activity.EventCreated, rec.entries[0].Event)
	assert.Equal(t, "Role", rec.entries[0].SubjectType)
}

func TestCreateRole_Validation(t *testing.T) {
	svc, repo, _ := newService()
	before := len(repo.roles)

	tests := []struct {
		name   string
		req    auth.RoleRequest
		fields map[string]string
	}{
		{"missing name", auth.RoleRequest{}, map[string]string{"name": "The name field is required."}},
		{"taken name", auth.RoleRequest{Name: auth.RoleMember}, map[string]string{"name": "The name has already been taken."}},
		{"too long", auth.RoleRequest{Name: strings.Repeat("r", 126)}, map[string]string{"name": "The name may not be greater than 125 characters."}},
		{
			"unknown permission and missing name",
			auth.RoleRequest{Permissions: []string{"nope"}},
			map[string]string{"name": "The name field is required.", "permissions": "The selected permissions is invalid."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRole(context.Background(), 1, &tt.req)
			verrs, ok := xerrors.AsValidation(err)
			require.True(t, ok)
			require.Len(t, verrs, len(tt.fields))
			for field, msg := range tt.fields {
				assert.Equal(t, []string{msg}, verrs[field])
			}
		})
	}
	assert.Len(t, repo.roles, before)
}

func TestUpdateRole_KeepsOwnNameAndRevokesHolders(t *testing.T) {
	svc, repo, sessions := newService()

	role, err := svc.UpdateRole(context.Background(), 1, 2, &auth.RoleRequest{
		Name:        auth.RoleMember,
		Permissions: []string{"reports-export"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reports-export"}, []string(repo.roles[2].Permissions))
	assert.Equal(t, auth.RoleMember, role.Name)
	assert.Equal(t, []int64{5}, sessions.revoked)
}

func TestUpdateRole_SystemCannotBeRenamed(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.UpdateRole(context.Background(), 1, 1, &auth.RoleRequest{Name: "root"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
	assert.Equal(t, auth.RoleSystem, repo.roles[1].Name)

	_, err = svc.UpdateRole(context.Background(), 1, 1, &auth.RoleRequest{
		Name:        auth.RoleSystem,
		Permissions: []string{auth.PermDomainsView, "reports-export"},
	})
	assert.NoError(t, err)
}

func TestUpdateRole_Missing(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.UpdateRole(context.Background(), 1, 404, &auth.RoleRequest{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestDeleteRole(t *testing.T) {
	svc, repo, sessions := newService()

	require.NoError(t, svc.DeleteRole(context.Background(), 1, 2))
	assert.NotContains(t, repo.roles, int64(2))
	assert.Empty(t, repo.userRoles[5])
	assert.Equal(t, []int64{5}, sessions.revoked)

	assert.ErrorIs(t, svc.DeleteRole(context.Background(), 1, 2), xerrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteRole(context.Background(), 1, 1), xerrors.ErrConflict)
}
