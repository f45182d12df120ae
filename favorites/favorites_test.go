package favorites

import (
	"context"
	"net/http"
	"testing"

	"chefbazar/internal/testutil"
	"chefbazar/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "me@example.com"

func TestAddFavorite(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewFavoriteService(store)
	body := map[string]any{"mealId": "m1", "mealName": "Pitha", "chefName": "Rina", "price": 3.5}

	rec := testutil.Serve(svc.AddFavorite, testutil.Request(t, http.MethodPost, "/favorites", me, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, testutil.Decode[map[string]string](t, rec)["insertedId"])

	rec = testutil.Serve(svc.AddFavorite, testutil.Request(t, http.MethodPost, "/favorites", me, body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, alreadyFavorite, testutil.Decode[map[string]string](t, rec)["message"])

	// same meal for another user is fine
	rec = testutil.Serve(svc.AddFavorite, testutil.Request(t, http.MethodPost, "/favorites", "you@example.com", body))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = testutil.Serve(svc.AddFavorite, testutil.Request(t, http.MethodPost, "/favorites", me, map[string]any{"mealName": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, store.Favorites, 2)
}

// racyStore reports no existing favorite so the insert hits the unique
// constraint.
type racyStore struct{ *testutil.MemStore }

func (racyStore) FavoriteExists(context.Context, string, string) (bool, error) { return false, nil }

func TestAddFavoriteRaceIsConflict(t *testing.T) {
	mem := testutil.NewMemStore()
	_, err := mem.InsertFavorite(context.Background(), &models.Favorite{MealID: "m1", UserEmail: me})
	require.NoError(t, err)

	svc := NewFavoriteService(racyStore{mem})
	rec := testutil.Serve(svc.AddFavorite, testutil.Request(t, http.MethodPost, "/favorites", me, map[string]any{"mealId": "m1"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListAndRemoveFavorites(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewFavoriteService(store)
	ctx := context.Background()
	mine, err := store.InsertFavorite(ctx, &models.Favorite{MealID: "m1", UserEmail: me})
	require.NoError(t, err)
	theirs, err := store.InsertFavorite(ctx, &models.Favorite{MealID: "m1", UserEmail: "you@example.com"})
	require.NoError(t, err)

	rec := testutil.Serve(svc.GetFavorites, testutil.Request(t, http.MethodGet, "/favorites", me, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testutil.Decode[[]models.Favorite](t, rec), 1)

	rec = testutil.Serve(svc.RemoveFavorite, testutil.Request(t, http.MethodDelete, "/favorites/"+theirs, me, nil), testutil.Param("id", theirs))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Serve(svc.RemoveFavorite, testutil.Request(t, http.MethodDelete, "/favorites/"+mine, me, nil), testutil.Param("id", mine))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Serve(svc.RemoveFavorite, testutil.Request(t, http.MethodDelete, "/favorites/"+mine, me, nil), testutil.Param("id", mine))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, store.Favorites, 1)
}
