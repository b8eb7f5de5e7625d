package access

import (
	"context"
	"slices"
	"strings"
	"testing"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
	"panel-service/internal/domain/listquery"
	xerrors "panel-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users       map[int64]*auth.User
	userRoles   map[int64][]string
	roles       map[int64]*auth.Role
	permissions map[int64]*auth.Permission
	nextID      int64
	lastQuery   listquery.Query
}

func newFakeRepo() *fakeRepo {
	f := &fakeRepo{
		users:       map[int64]*auth.User{},
		userRoles:   map[int64][]string{},
		roles:       map[int64]*auth.Role{},
		permissions: map[int64]*auth.Permission{},
		nextID:      100,
	}
	f.users[5] = &auth.User{ID: 5, Name: "Member", Email: "member@member.com", Status: auth.StatusActive}
	f.userRoles[5] = []string{auth.RoleMember}
	f.roles[1] = &auth.Role{ID: 1, Name: auth.RoleSystem, Permissions: []string{auth.PermDomainsView}}
	f.roles[2] = &auth.Role{ID: 2, Name: auth.RoleMember}
	f.permissions[1] = &auth.Permission{ID: 1, Name: auth.PermDomainsView}
	f.permissions[2] = &auth.Permission{ID: 2, Name: "reports-export"}
	return f
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) FindUserByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, xerrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetUserRoles(_ context.Context, id int64) ([]string, error) {
	return slices.Clone(f.userRoles[id]), nil
}

func (f *fakeRepo) ListUsers(_ context.Context, q listquery.Query) ([]auth.UserWithRoles, int64, error) {
	f.lastQuery = q
	return []auth.UserWithRoles{{User: auth.User{ID: 1, Name: "Admin"}, Roles: []string{"admin"}}}, 1, nil
}

func (f *fakeRepo) UserExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u *auth.User, roles []string) error {
	u.ID = f.id()
	cp := *u
	f.users[u.ID] = &cp
	f.userRoles[u.ID] = roles
	return nil
}

func (f *fakeRepo) UpdateUser(_ context.Context, u *auth.User, roles []string) error {
	if _, ok := f.users[u.ID]; !ok {
		return xerrors.NotFound("user", u.ID)
	}
	cp := *u
	f.users[u.ID] = &cp
	f.userRoles[u.ID] = roles
	return nil
}

func (f *fakeRepo) DeleteUser(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return xerrors.NotFound("user", id)
	}
	delete(f.users, id)
	delete(f.userRoles, id)
	return nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return xerrors.NotFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) ListRoles(context.Context) ([]auth.Role, error) {
	return []auth.Role{{ID: 1, Name: "admin"}}, nil
}

func (f *fakeRepo) FindRoleByID(_ context.Context, id int64) (*auth.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, xerrors.NotFound("role", id)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) RoleExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, r := range f.roles {
		if r.Name == name && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateRole(_ context.Context, role *auth.Role) error {
	role.ID = f.id()
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, role *auth.Role) error {
	if _, ok := f.roles[role.ID]; !ok {
		return xerrors.NotFound("role", role.ID)
	}
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteRole(_ context.Context, id int64) error {
	r, ok := f.roles[id]
	if !ok {
		return xerrors.NotFound("role", id)
	}
	for uid, names := range f.userRoles {
		f.userRoles[uid] = slices.DeleteFunc(names, func(n string) bool { return n == r.Name })
	}
	delete(f.roles, id)
	return nil
}

func (f *fakeRepo) UserIDsWithRole(_ context.Context, roleID int64) ([]int64, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return nil, nil
	}
	ids := []int64{}
	for uid, names := range f.userRoles {
		if slices.Contains(names, r.Name) {
			ids = append(ids, uid)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *fakeRepo) MissingRoles(_ context.Context, names []string) ([]string, error) {
	missing := []string{}
	for _, n := range names {
		if ok, _ := f.RoleExistsByName(context.Background(), n, 0); !ok {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

func (f *fakeRepo) ListPermissions(context.Context) ([]auth.Permission, error) {
	return []auth.Permission{{ID: 1, Name: "domains-view"}}, nil
}

func (f *fakeRepo) FindPermissionByID(_ context.Context, id int64) (*auth.Permission, error) {
	p, ok := f.permissions[id]
	if !ok {
		return nil, xerrors.NotFound("permission", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) PermissionExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, p := range f.permissions {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreatePermission(_ context.Context, p *auth.Permission) error {
	p.ID = f.id()
	cp := *p
	f.permissions[p.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdatePermission(_ context.Context, p *auth.Permission) error {
	if _, ok := f.permissions[p.ID]; !ok {
		return xerrors.NotFound("permission", p.ID)
	}
	cp := *p
	f.permissions[p.ID] = &cp
	return nil
}

func (f *fakeRepo) DeletePermission(_ context.Context, id int64) error {
	if _, ok := f.permissions[id]; !ok {
		return xerrors.NotFound("permission", id)
	}
	delete(f.permissions, id)
	return nil
}

func (f *fakeRepo) MissingPermissions(_ context.Context, names []string) ([]string, error) {
	missing := []string{}
	for _, n := range names {
		if ok, _ := f.PermissionExistsByName(context.Background(), n, 0); !ok {
			missing = append(missing, n)
		}
	}
	return missing, nil
}

type fakeRecorder struct{ entries []*activity.Entry }

func (f *fakeRecorder) Record(_ context.Context, e *activity.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeSessions struct{ revoked []int64 }

func (f *fakeSessions) InvalidateAllUserSessions(_ context.Context, id int64) (int, error) {
	f.revoked = append(f.revoked, id)
	return 2, nil
}

func newService() (*AccessService, *fakeRepo, *fakeSessions) {
	svc, repo, sessions, _ := newRecordingService()
	return svc, repo, sessions
}

func newRecordingService() (*AccessService, *fakeRepo, *fakeSessions, *fakeRecorder) {
	repo := newFakeRepo()
	sessions := &fakeSessions{}
	rec := &fakeRecorder{}
	return NewAccessService(repo, sessions, rec, zap.NewNop()), repo, sessions, rec
}

func TestResetPassword(t *testing.T) {
	svc, repo, sessions := newService()

	err := svc.ResetPassword(context.Background(), 1, 5, &auth.ResetPasswordRequest{
		Password:             "new-password",
		PasswordConfirmation: "new-password",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[5].PasswordHash), []byte("new-password")))
	assert.Equal(t, []int64{5}, sessions.revoked)
}

func TestResetPassword_Validation(t *testing.T) {
	svc, _, sessions := newService()

	tests := []struct {
		name string
		req  auth.ResetPasswordRequest
		want string
	}{
		{"missing", auth.ResetPasswordRequest{}, "The password field is required."},
		{"short", auth.ResetPasswordRequest{Password: "short", PasswordConfirmation: "short"}, "The password must be at least 8 characters."},
		{"mismatch", auth.ResetPasswordRequest{Password: "long-enough", PasswordConfirmation: "different"}, "The password confirmation does not match."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(context.Background(), 1, 5, &tt.req)
			verrs, ok := xerrors.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, []string{tt.want}, verrs["password"])
		})
	}
	assert.Empty(t, sessions.revoked)
}

func TestResetPassword_UnknownUser(t *testing.T) {
	svc, _, _ := newService()

	err := svc.ResetPassword(context.Background(), 1, 99, &auth.ResetPasswordRequest{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestListUsers_Normalizes(t *testing.T) {
	svc, repo, _ := newService()

	resp, err := svc.ListUsers(context.Background(), listquery.Raw{PerPage: "5", Sort: "email", Order: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastQuery.PerPage)
	assert.Equal(t, "email", repo.lastQuery.Sort)
	assert.Equal(t, listquery.Desc, repo.lastQuery.Order)
	assert.Equal(t, int64(1), resp.Users.Total)
	assert.Equal(t, 1, resp.Users.From)
}
