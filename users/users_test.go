package users

import (
	"net/http"
	"testing"

	"chefbazar/internal/testutil"
	"chefbazar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUserKeepsRoleAndStatus(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewUserService(store)
	body := map[string]any{"email": "nadia@example.com", "name": "Nadia"}

	rec := testutil.Serve(svc.UpsertUser, testutil.Request(t, http.MethodPost, "/user", "", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, testutil.Decode[map[string]bool](t, rec)["created"])

	u := store.User("nadia@example.com")
	require.NotNil(t, u)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, models.StatusActive, u.Status)
	firstLogin := u.LastLoggedIn

	// promote and flag, then log in again
	store.Users[u.ID].Role = models.RoleChef
	store.Users[u.ID].Status = models.StatusFraud

	rec = testutil.Serve(svc.UpsertUser, testutil.Request(t, http.MethodPost, "/user", "", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, testutil.Decode[map[string]bool](t, rec)["created"])

	u = store.User("nadia@example.com")
	assert.Equal(t, models.RoleChef, u.Role)
	assert.Equal(t, models.StatusFraud, u.Status)
	assert.False(t, u.LastLoggedIn.Before(firstLogin))
	assert.Len(t, store.Users, 1)
}

func TestUpsertUserValidation(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore())

	for _, body := range []any{map[string]any{"name": "x"}, map[string]any{"email": "not-an-email"}, nil} {
		rec := testutil.Serve(svc.UpsertUser, testutil.Request(t, http.MethodPost, "/user", "", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestGetRole(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(models.User{Email: "chef@example.com", Role: models.RoleChef, Status: models.StatusFraud})
	svc := NewUserService(store)

	tests := []struct {
		email  string
		role   string
		status string
	}{
		{"chef@example.com", models.RoleChef, models.StatusFraud},
		{"nobody@example.com", models.RoleUser, models.StatusActive},
	}
	for _, tt := range tests {
		rec := testutil.Serve(svc.GetRole, testutil.Request(t, http.MethodGet, "/user/role", tt.email, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := testutil.Decode[map[string]string](t, rec)
		assert.Equal(t, tt.role, got["role"], tt.email)
		assert.Equal(t, tt.status, got["status"], tt.email)
	}
}

func TestListUsersExcludesCaller(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	store.AddUser(models.User{Email: "a@example.com"})
	store.AddUser(models.User{Email: "b@example.com"})
	svc := NewUserService(store)

	rec := testutil.Serve(svc.ListUsers, testutil.Request(t, http.MethodGet, "/users", "admin@example.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := testutil.Decode[[]models.User](t, rec)
	require.Len(t, got, 2)
	for _, u := range got {
		assert.NotEqual(t, "admin@example.com", u.Email)
	}
}

func TestMakeFraud(t *testing.T) {
	store := testutil.NewMemStore()
	id := store.AddUser(models.User{Email: "a@example.com"})
	svc := NewUserService(store)

	rec := testutil.Serve(svc.MakeFraud, testutil.Request(t, http.MethodPatch, "/users/make-fraud/"+id, "admin@example.com", nil), testutil.Param("id", id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusFraud, store.User("a@example.com").Status)

	for _, bad := range []string{"65f000000000000000000000", "zzz"} {
		rec = testutil.Serve(svc.MakeFraud, testutil.Request(t, http.MethodPatch, "/users/make-fraud/"+bad, "admin@example.com", nil), testutil.Param("id", bad))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}
