package reviews

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chefbazar/models"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Store interface {
	InsertReview(ctx context.Context, review *models.Review) (string, error)
	ReviewsByFood(ctx context.Context, foodID string) ([]models.Review, error)
	ReviewsByReviewer(ctx context.Context, email string) ([]models.Review, error)
	AverageRating(ctx context.Context, foodID string) (float64, int64, error)
	DeleteReview(ctx context.Context, id, email string) (*models.Review, error)
	SetMealRating(ctx context.Context, id string, rating float64) error
	FindMeal(ctx context.Context, id string) (*models.Meal, error)
}

type ReviewService struct {
	store Store
	now   func() time.Time
}

func NewReviewService(store Store) *ReviewService {
	return &ReviewService{store: store, now: time.Now}
}

type reviewInput struct {
	FoodID        string  `json:"foodId" validate:"required"`
	Rating        float64 `json:"rating" validate:"required,min=1,max=5"`
	Comment       string  `json:"comment" validate:"required"`
	ReviewerName  string  `json:"reviewerName"`
	ReviewerImage string  `json:"reviewerImage"`
}

// POST /reviews
func (s *ReviewService) AddReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in reviewInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid review data")
		return
	}

	// a review for a meal that does not exist would never be shown or rated
	if _, err := s.store.FindMeal(ctx, in.FoodID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Meal not found")
			return
		}
		logrus.WithError(err).WithField("foodId", in.FoodID).Error("find reviewed meal")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}

	review := models.Review{
		FoodID:        in.FoodID,
		ReviewerName:  in.ReviewerName,
		ReviewerEmail: utils.GetEmailFromRequest(r),
		ReviewerImage: in.ReviewerImage,
		Rating:        in.Rating,
		Comment:       in.Comment,
		Date:          s.now().UTC(),
	}
	id, err := s.store.InsertReview(ctx, &review)
	if err != nil {
		logrus.WithError(err).WithField("foodId", in.FoodID).Error("insert review")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}

	rating, err := s.refreshRating(ctx, in.FoodID)
	if err != nil {
		logrus.WithError(err).WithField("foodId", in.FoodID).Error("refresh meal rating")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"insertedId": id, "rating": rating})
}

// refreshRating recomputes the meal's mean rating, rounded to one decimal,
// and stores it on the meal. No reviews left means a rating of 0.
func (s *ReviewService) refreshRating(ctx context.Context, foodID string) (float64, error) {
	avg, count, err := s.store.AverageRating(ctx, foodID)
	if err != nil {
		return 0, err
	}
	rating := 0.0
	if count > 0 {
		rating = utils.RoundTo1(avg)
	}
	if err := s.store.SetMealRating(ctx, foodID, rating); err != nil {
		return 0, err
	}
	return rating, nil
}

// GET /reviews/:foodId
func (s *ReviewService) GetReviewsByFood(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reviews, err := s.store.ReviewsByFood(ctx, ps.ByName("foodId"))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to retrieve reviews")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// GET /my-reviews
func (s *ReviewService) MyReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reviews, err := s.store.ReviewsByReviewer(ctx, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to retrieve reviews")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// DELETE /reviews/:id
func (s *ReviewService) DeleteReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	review, err := s.store.DeleteReview(ctx, ps.ByName("id"), utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to delete review")
		return
	}

	rating, err := s.refreshRating(ctx, review.FoodID)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to update meal rating")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"deletedCount": 1, "rating": rating})
}
