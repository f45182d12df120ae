package favorites

import (
	"context"
	"net/http"
	"time"

	"chefbazar/models"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
)

type Store interface {
	FavoriteExists(ctx context.Context, mealID, email string) (bool, error)
	InsertFavorite(ctx context.Context, fav *models.Favorite) (string, error)
	FavoritesByUser(ctx context.Context, email string) ([]models.Favorite, error)
	DeleteFavorite(ctx context.Context, id, email string) error
}

type FavoriteService struct {
	store Store
	now   func() time.Time
}

func NewFavoriteService(store Store) *FavoriteService {
	return &FavoriteService{store: store, now: time.Now}
}

type favoriteInput struct {
	MealID   string  `json:"mealId" validate:"required"`
	MealName string  `json:"mealName"`
	ChefName string  `json:"chefName"`
	Price    float64 `json:"price" validate:"gte=0"`
	Image    string  `json:"image"`
}

const alreadyFavorite = "Meal already in favorites"

// POST /favorites
func (s *FavoriteService) AddFavorite(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in favoriteInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid favorite data")
		return
	}
	email := utils.GetEmailFromRequest(r)

	exists, err := s.store.FavoriteExists(ctx, in.MealID, email)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to add favorite")
		return
	}
	if exists {
		utils.RespondWithError(w, http.StatusConflict, alreadyFavorite)
		return
	}

	id, err := s.store.InsertFavorite(ctx, &models.Favorite{
		MealID:    in.MealID,
		MealName:  in.MealName,
		ChefName:  in.ChefName,
		Price:     in.Price,
		Image:     in.Image,
		UserEmail: email,
		AddedTime: s.now().UTC(),
	})
	if err != nil {
		// lost a race with a concurrent add; the unique index caught it
		if utils.StatusFor(err) == http.StatusConflict {
			utils.RespondWithError(w, http.StatusConflict, alreadyFavorite)
			return
		}
		utils.RespondWithErr(w, err, "Failed to add favorite")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"insertedId": id})
}

// GET /favorites
func (s *FavoriteService) GetFavorites(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	favs, err := s.store.FavoritesByUser(ctx, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch favorites")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, favs)
}

// DELETE /favorites/:id
func (s *FavoriteService) RemoveFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.DeleteFavorite(ctx, ps.ByName("id"), utils.GetEmailFromRequest(r)); err != nil {
		utils.RespondWithErr(w, err, "Failed to remove favorite")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"deletedCount": 1})
}
