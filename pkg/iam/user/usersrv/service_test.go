package usersrv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/iam/user"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// plainPasswords avoids bcrypt cost in tests.
type plainPasswords struct{}

func (plainPasswords) HashPassword(p string) (string, error) { return "h:" + p, nil }
func (plainPasswords) VerifyPassword(h, p string) bool       { return strings.TrimPrefix(h, "h:") == p }

func newService() (*UserService, *userinfra.MemoryUserRepository) {
	repo := userinfra.NewMemoryUserRepository()
	svc := NewUserService(repo, plainPasswords{})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateUser(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, user.CreateUserRequest{
		Email: "  Ana@Acme.io ", Name: "Ana", Password: "s3cretpass", Role: kernel.RoleRecruiter,
	})
	require.NoError(t, err)
	require.Equal(t, "ana@acme.io", u.Email)
	require.Equal(t, "h:s3cretpass", u.PasswordHash)
	require.True(t, u.Active)

	_, err = svc.CreateUser(ctx, user.CreateUserRequest{
		Email: "ana@acme.io", Name: "Ana 2", Password: "s3cretpass", Role: kernel.RoleRecruiter,
	})
	require.True(t, errx.Is(err, user.CodeUserAlreadyExists))
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newService()
	cases := []user.CreateUserRequest{
		{Email: "nope", Name: "A", Password: "longenough", Role: kernel.RoleMaster},
		{Email: "a@b.c", Name: "", Password: "longenough", Role: kernel.RoleMaster},
		{Email: "a@b.c", Name: "A", Password: "short", Role: kernel.RoleMaster},
		{Email: "a@b.c", Name: "A", Password: "longenough", Role: "ADMIN"},
		{Email: "a@b.c", Name: "A", Password: "longenough", Role: kernel.RoleMaster, Scopes: []string{"rockets:launch"}},
	}
	for _, req := range cases {
		_, err := svc.CreateUser(context.Background(), req)
		require.True(t, errx.IsType(err, errx.TypeValidation), "%+v", req)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	created, err := svc.CreateUser(ctx, user.CreateUserRequest{
		Email: "ana@acme.io", Name: "Ana", Password: "s3cretpass", Role: kernel.RoleHRAssistant,
	})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "ANA@acme.io", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)
	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	_, err = svc.Authenticate(ctx, "ana@acme.io", "wrong")
	require.True(t, errx.Is(err, user.CodeInvalidCredentials))

	_, err = svc.Authenticate(ctx, "ghost@acme.io", "s3cretpass")
	require.True(t, errx.Is(err, user.CodeInvalidCredentials))

	stored.Active = false
	require.NoError(t, repo.Save(ctx, *stored))
	_, err = svc.Authenticate(ctx, "ana@acme.io", "s3cretpass")
	require.True(t, errx.Is(err, user.CodeUserInactive))
}

func TestEnsureMaster_Idempotent(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureMaster(ctx, "root@acme.io", "Root", "rootpassword"))
	require.NoError(t, svc.EnsureMaster(ctx, "root@acme.io", "Root", "rootpassword"))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NoError(t, svc.EnsureMaster(ctx, "", "", ""))
}
