package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colegio_backend/internals/constants"
	helperAuth "colegio_backend/internals/helpers/auth"
)

const testSecret = "test-secret"

var (
	schoolA = uuid.MustParse("6f1c1d2e-8a51-4c1b-9d59-0c7d2b4f8a10")
	schoolB = uuid.MustParse("0b6c9f43-2d1e-4a7b-8f35-1a2b3c4d5e6f")
)

func token(t *testing.T, userID uuid.UUID, global []string, roles ...helperAuth.SchoolRolesEntry) string {
	t.Helper()
	raw, _, err := helperAuth.IssueAccessToken(userID, "user@colegio.test", global, roles, testSecret, time.Hour)
	require.NoError(t, err)
	return raw
}

func newApp(opts AuthJWTOpts) *fiber.App {
	app := fiber.New()
	protected := AuthJWT(opts)

	app.Get("/me", protected, func(c *fiber.Ctx) error {
		uid, err := helperAuth.GetUserID(c)
		if err != nil {
			return err
		}
		return c.SendString(uid.String())
	})
	admin := app.Group("/api/a/:school_id", protected, RequireSchoolStaff())
	admin.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("staff") })
	user := app.Group("/api/u/:school_id", protected, RequireSchoolMember())
	user.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("member") })
	return app
}

func do(t *testing.T, app *fiber.App, path, bearer string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthJWTAcceptsIssuedToken(t *testing.T) {
	app := newApp(AuthJWTOpts{Secret: testSecret})
	uid := uuid.New()

	code, body := do(t, app, "/me", token(t, uid, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uid.String(), body)
}

func TestAuthJWTRejections(t *testing.T) {
	app := newApp(AuthJWTOpts{Secret: testSecret})

	code, _ := do(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, app, "/me", "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, code)

	other, _, err := helperAuth.IssueAccessToken(uuid.New(), "x@colegio.test", nil, nil, "another-secret", time.Hour)
	require.NoError(t, err)
	code, _ = do(t, app, "/me", other)
	assert.Equal(t, http.StatusUnauthorized, code)

	expired, _, err := helperAuth.IssueAccessToken(uuid.New(), "x@colegio.test", nil, nil, testSecret, -time.Minute)
	require.NoError(t, err)
	code, _ = do(t, app, "/me", expired)
	assert.Equal(t, http.StatusUnauthorized, code)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	code, _ = do(t, app, "/me", noID)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthJWTBlacklist(t *testing.T) {
	revoked := token(t, uuid.New(), nil)
	app := newApp(AuthJWTOpts{
		Secret: testSecret,
		BlacklistChecker: func(_ context.Context, raw string) (bool, error) {
			return raw == revoked, nil
		},
	})

	code, _ := do(t, app, "/me", revoked)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, app, "/me", token(t, uuid.New(), nil))
	assert.Equal(t, http.StatusOK, code)

	failing := newApp(AuthJWTOpts{
		Secret: testSecret,
		BlacklistChecker: func(context.Context, string) (bool, error) {
			return false, errors.New("db down")
		},
	})
	code, _ = do(t, failing, "/me", revoked)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthJWTCookieFallback(t *testing.T) {
	raw := token(t, uuid.New(), nil)
	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.AddCookie(&http.Cookie{Name: "access_token", Value: raw})
		return r
	}

	resp, err := newApp(AuthJWTOpts{Secret: testSecret}).Test(req(), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = newApp(AuthJWTOpts{Secret: testSecret, AllowCookieFallback: true}).Test(req(), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSchoolScopeGuards(t *testing.T) {
	app := newApp(AuthJWTOpts{Secret: testSecret})
	admin := token(t, uuid.New(), nil, helperAuth.SchoolRolesEntry{SchoolID: schoolA, Roles: []string{constants.RoleAdmin}})
	padre := token(t, uuid.New(), nil, helperAuth.SchoolRolesEntry{SchoolID: schoolA, Roles: []string{constants.RolePadre}})
	owner := token(t, uuid.New(), []string{constants.RoleOwner})

	cases := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"admin in own school", "/api/a/" + schoolA.String() + "/ping", admin, http.StatusOK},
		{"admin in other school", "/api/a/" + schoolB.String() + "/ping", admin, http.StatusForbidden},
		{"padre on staff route", "/api/a/" + schoolA.String() + "/ping", padre, http.StatusForbidden},
		{"padre as member", "/api/u/" + schoolA.String() + "/ping", padre, http.StatusOK},
		{"padre in other school", "/api/u/" + schoolB.String() + "/ping", padre, http.StatusForbidden},
		{"owner anywhere", "/api/a/" + schoolB.String() + "/ping", owner, http.StatusOK},
		{"malformed school", "/api/a/not-a-uuid/ping", admin, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := do(t, app, tc.path, tc.token)
			assert.Equal(t, tc.want, code)
		})
	}
}
