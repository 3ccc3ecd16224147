package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-checkout/internal/model"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/testdb"
	"go-pos-checkout/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*fiber.App, repository.UserRepository, *model.User) {
	t.Helper()
	t.Setenv("JWT_SECRET", "middleware-test")

	userRepo := repository.NewUserRepo(testdb.New(t))
	user := &model.User{Name: "ana", Role: model.RoleCashier, IsActive: true}
	require.NoError(t, user.SetPassword("secret1"))
	require.NoError(t, userRepo.Create(context.Background(), user))
	require.NoError(t, userRepo.StartSession(context.Background(), user.ID, "v1", time.Now()))

	app := fiber.New()
	app.Get("/register", RequireAuth(userRepo), RequirePrivilege(model.PrivRegister), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_display").(string) + "|" + c.Locals("session_id").(string))
	})
	app.Get("/users", RequireAuth(userRepo), RequirePrivilege(model.PrivUserManage), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app, userRepo, user
}

func get(t *testing.T, app *fiber.App, path, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func token(t *testing.T, user *model.User, version string) string {
	t.Helper()
	tok, err := jwt.GenerateToken(user.ID, user.Name, user.Role, user.Privileges(), version)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	app, _, user := setup(t)

	status, body := get(t, app, "/register", "Bearer "+token(t, user, "v1"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana (Cashier)|v1", body)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
		"stale version":  "Bearer " + token(t, user, "v0"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			status, _ := get(t, app, "/register", header)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestRequireAuth_LoggedOutUser(t *testing.T) {
	app, userRepo, user := setup(t)
	tok := token(t, user, "v1")

	require.NoError(t, userRepo.UpdateTokenVersion(context.Background(), user.ID, ""))

	status, _ := get(t, app, "/register", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequirePrivilege(t *testing.T) {
	app, _, user := setup(t)

	status, body := get(t, app, "/users", "Bearer "+token(t, user, "v1"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, model.PrivUserManage)
}
