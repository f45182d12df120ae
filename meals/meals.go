package meals

import (
	"context"
	"net/http"
	"time"

	"chefbazar/models"
	"chefbazar/policy"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
)

const latestLimit = 8

type Store interface {
	policy.UserFinder
	InsertMeal(ctx context.Context, meal *models.Meal) (string, error)
	ListMeals(ctx context.Context) ([]models.Meal, error)
	LatestMeals(ctx context.Context, limit int64) ([]models.Meal, error)
	FindMeal(ctx context.Context, id string) (*models.Meal, error)
	MealsByChef(ctx context.Context, email string) ([]models.Meal, error)
	UpdateMeal(ctx context.Context, id, chefEmail string, update models.MealUpdate) (*models.Meal, error)
	DeleteMeal(ctx context.Context, id, chefEmail string) error
}

type MealService struct {
	store Store
	now   func() time.Time
}

func NewMealService(store Store) *MealService {
	return &MealService{store: store, now: time.Now}
}

type mealInput struct {
	FoodName              string   `json:"foodName" validate:"required"`
	Price                 float64  `json:"price" validate:"gt=0"`
	Quantity              int64    `json:"quantity" validate:"gte=0"`
	Image                 string   `json:"image"`
	Ingredients           []string `json:"ingredients"`
	EstimatedDeliveryTime string   `json:"estimatedDeliveryTime"`
	DeliveryArea          string   `json:"deliveryArea"`
	ChefName              string   `json:"chefName"`
}

// POST /save-meals
func (s *MealService) SaveMeal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	caller, err := policy.LoadCaller(ctx, s.store, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to load user")
		return
	}
	// checked before the body so a flagged account learns nothing from validation
	if err := policy.Check(caller, policy.CreateMeal); err != nil {
		utils.RespondWithErr(w, err, "Forbidden Access!")
		return
	}

	var in mealInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid meal data")
		return
	}

	chefName := in.ChefName
	if chefName == "" {
		chefName = caller.Name
	}
	meal := models.Meal{
		FoodName:              in.FoodName,
		Price:                 in.Price,
		Quantity:              in.Quantity,
		Image:                 in.Image,
		Ingredients:           in.Ingredients,
		EstimatedDeliveryTime: in.EstimatedDeliveryTime,
		DeliveryArea:          in.DeliveryArea,
		Chef: models.ChefInfo{
			Name:   chefName,
			Email:  caller.Email,
			ChefID: caller.ChefID,
		},
		CreatedAt: s.now().UTC(),
	}

	id, err := s.store.InsertMeal(ctx, &meal)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to save meal")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"acknowledged": true, "insertedId": id})
}

// GET /meals
func (s *MealService) GetMeals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	meals, err := s.store.ListMeals(ctx)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch meals")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meals)
}

// GET /latest-meals
func (s *MealService) GetLatestMeals(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	meals, err := s.store.LatestMeals(ctx, latestLimit)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch meals")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meals)
}

// GET /meals/:id
func (s *MealService) GetMeal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	meal, err := s.store.FindMeal(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch meal")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meal)
}

// GET /my-Meals/:email
func (s *MealService) GetChefMeals(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	meals, err := s.store.MealsByChef(ctx, ps.ByName("email"))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch meals")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meals)
}

// PATCH /meals/:id
func (s *MealService) UpdateMeal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	caller, err := policy.LoadCaller(ctx, s.store, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to load user")
		return
	}
	if err := policy.Check(caller, policy.CreateMeal); err != nil {
		utils.RespondWithErr(w, err, "Forbidden Access!")
		return
	}

	var update models.MealUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.RespondWithErr(w, err, "Invalid meal data")
		return
	}
	if update.Empty() {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	meal, err := s.store.UpdateMeal(ctx, ps.ByName("id"), caller.Email, update)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to update meal")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, meal)
}

// DELETE /meals/:id
func (s *MealService) DeleteMeal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.DeleteMeal(ctx, ps.ByName("id"), utils.GetEmailFromRequest(r)); err != nil {
		utils.RespondWithErr(w, err, "Failed to delete meal")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"deletedCount": 1})
}
