package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/auth"
	"github.com/agrimech/portal/internal/models"
)

func newTestService(t *testing.T) (*Service, *memStore, *fakeNotifier, *auth.JWTService) {
	t.Helper()
	store, notifier := newMemStore(), &fakeNotifier{}
	tokens := auth.NewJWTService("test-secret", 1)
	svc := NewService(store, auth.NewHasher(bcrypt.MinCost), tokens, notifier, nil)
	return svc, store, notifier, tokens
}

func seed(t *testing.T, svc *Service, username string, role models.AdminRole) *models.AdminUser {
	t.Helper()
	a, err := svc.Create(context.Background(), CreateInput{
		Username: username,
		Password: "Harvest2030",
		FullName: "Admin " + username,
		Email:    username + "@agrimech.org",
		Role:     role,
	})
	require.NoError(t, err)
	return a
}

func TestLogin_IssuesTokenThatAuthenticates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	root := seed(t, svc, "root", models.AdminRoleSuperAdmin)

	res, err := svc.Login(context.Background(), "root", "Harvest2030")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotNil(t, res.Admin.LastLoginAt)

	a, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, root.ID, a.ID)
	assert.Equal(t, models.AdminRoleSuperAdmin, a.Role)
}

func TestLogin_FailuresAreUniform(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	a := seed(t, svc, "ops", models.AdminRoleAdmin)

	_, errUnknown := svc.Login(context.Background(), "nobody", "Harvest2030")
	_, errWrong := svc.Login(context.Background(), "ops", "Wrong12345")

	inactive := false
	_, err := store.Update(context.Background(), a.ID, Update{IsActive: &inactive})
	require.NoError(t, err)
	_, errInactive := svc.Login(context.Background(), "ops", "Harvest2030")

	for _, err := range []error{errUnknown, errWrong, errInactive} {
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		assert.Equal(t, apperr.ErrInvalidCredentials.Message, err.Error())
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc, store, _, tokens := newTestService(t)
	a := seed(t, svc, "ops", models.AdminRoleAdmin)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	other, err := auth.NewJWTService("other-secret", 1).Generate(a.ID, a.Username, string(a.Role))
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, other)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	ghost, err := tokens.Generate(uuid.New(), "ghost", "admin")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	valid, err := tokens.Generate(a.ID, a.Username, string(a.Role))
	require.NoError(t, err)
	inactive := false
	_, err = store.Update(ctx, a.ID, Update{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, valid)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestPasswordReset_SingleUseAndExpiry(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	seed(t, svc, "ops", models.AdminRoleAdmin)
	ctx := context.Background()
	start := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@agrimech.org"))
	assert.Empty(t, notifier.tokens)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ops@agrimech.org"))
	require.Len(t, notifier.tokens, 1)
	token := notifier.tokens[0]

	require.NoError(t, svc.ResetPassword(ctx, token, "NewHarvest1"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "NewHarvest2"), apperr.ErrInvalidOrExpiredToken)

	_, err := svc.Login(ctx, "ops", "NewHarvest1")
	assert.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ops@agrimech.org"))
	svc.now = func() time.Time { return start.Add(ResetTTL + time.Second) }
	assert.ErrorIs(t, svc.ResetPassword(ctx, notifier.tokens[1], "NewHarvest3"), apperr.ErrInvalidOrExpiredToken)
}

func TestSelfProtection(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	root := seed(t, svc, "root", models.AdminRoleSuperAdmin)
	ops := seed(t, svc, "ops", models.AdminRoleAdmin)
	ctx := context.Background()

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(svc.DeleteAdmin(ctx, root.ID, root.ID)))

	inactive := false
	_, err := svc.UpdateAdmin(ctx, root.ID, root.ID, Update{IsActive: &inactive})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	updated, err := svc.UpdateAdmin(ctx, root.ID, ops.ID, Update{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.DeleteAdmin(ctx, root.ID, ops.ID))
	_, err = svc.Get(ctx, ops.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{Username: "x", Password: "short", FullName: "X", Email: "x@agrimech.org"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), CreateInput{Username: "x", Password: "Harvest2030", FullName: "X", Email: "x@agrimech.org", Role: "owner"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
