package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"colegio_backend/internals/constants"
	"colegio_backend/internals/features/users/auth/model"
	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/testutil"
)

const secret = "test-secret"

var (
	schoolA = uuid.MustParse("6f1c1d2e-8a51-4c1b-9d59-0c7d2b4f8a10")
	schoolB = uuid.MustParse("0b6c9f43-2d1e-4a7b-8f35-1a2b3c4d5e6f")
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	return &Service{DB: db, Secret: secret, AccessTTL: time.Hour}, db
}

func withPassword(t *testing.T, db *gorm.DB, u model.User, plain string) {
	t.Helper()
	hash, err := HashPassword(plain)
	require.NoError(t, err)
	require.NoError(t, db.Model(&u).Update("password", hash).Error)
}

func TestLoginIssuesTokenWithSchoolRoles(t *testing.T) {
	svc, db := newService(t)
	u := testutil.CreateUser(t, db, "finanzas@colegio.test", constants.RoleFinanzas, schoolA)
	require.NoError(t, db.Create(&model.UserSchoolRole{UserID: u.ID, SchoolID: schoolA, Role: constants.RoleAdmin}).Error)
	require.NoError(t, db.Create(&model.UserSchoolRole{UserID: u.ID, SchoolID: schoolB, Role: constants.RolePadre}).Error)
	withPassword(t, db, u, "secreto123")

	res, err := svc.Login(context.Background(), "  Finanzas@Colegio.test ", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	require.Len(t, res.SchoolRoles, 2)

	byID := map[uuid.UUID][]string{}
	for _, e := range res.SchoolRoles {
		byID[e.SchoolID] = e.Roles
	}
	assert.ElementsMatch(t, []string{constants.RoleAdmin, constants.RoleFinanzas}, byID[schoolA])
	assert.Equal(t, []string{constants.RolePadre}, byID[schoolB])

	tok, err := jwt.Parse(res.AccessToken, func(*jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID.String(), claims["id"])
	assert.Len(t, helperAuth.ParseSchoolRoles(claims["school_roles"]), 2)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, time.Minute)
}

func TestLoginFailures(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	active := testutil.CreateUser(t, db, "padre@colegio.test", constants.RolePadre, schoolA)
	withPassword(t, db, active, "secreto123")

	inactive := testutil.CreateUser(t, db, "baja@colegio.test", constants.RolePadre, schoolA)
	withPassword(t, db, inactive, "secreto123")
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	testutil.CreateUser(t, db, "google@colegio.test", constants.RolePadre, schoolA)

	_, err := svc.Login(ctx, "padre@colegio.test", "otra-clave")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nadie@colegio.test", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "google@colegio.test", "secreto123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "accounts without a password only sign in with google")

	_, err = svc.Login(ctx, "baja@colegio.test", "secreto123")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestLoginGoogleDisabled(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.LoginGoogle(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "admin@colegio.test", constants.RoleAdmin, schoolA)
	withPassword(t, db, u, "secreto123")

	res, err := svc.Login(ctx, u.Email, "secreto123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, res.AccessToken, res.ExpiresAt))

	black, err := helperAuth.IsBlacklisted(ctx, db, res.AccessToken, secret)
	require.NoError(t, err)
	assert.True(t, black)
}

func TestMe(t *testing.T) {
	svc, db := newService(t)
	u := testutil.CreateUser(t, db, "admin@colegio.test", constants.RoleAdmin, schoolA)

	got, err := svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@colegio.test", got.Email)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
