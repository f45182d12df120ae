package users

import (
	"context"
	"net/http"
	"time"

	"chefbazar/models"
	"chefbazar/policy"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Store interface {
	policy.UserFinder
	UpsertLogin(ctx context.Context, user models.User) (bool, error)
	ListUsersExcept(ctx context.Context, email string) ([]models.User, error)
	MarkFraud(ctx context.Context, id string) error
}

type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

type loginInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// POST /user
// Called by the client after every sign-in. Role and status of an existing
// user are never touched.
func (s *UserService) UpsertUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in loginInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid user data")
		return
	}

	created, err := s.store.UpsertLogin(ctx, models.User{Email: in.Email, Name: in.Name, Image: in.Image})
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to save user")
		return
	}
	if created {
		logrus.WithField("email", in.Email).Info("new user registered")
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"created": created})
}

// GET /user/role
func (s *UserService) GetRole(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := policy.LoadCaller(ctx, s.store, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to load user")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"role": user.Role, "status": user.Status})
}

// GET /users
func (s *UserService) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := s.store.ListUsersExcept(ctx, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch users")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// PATCH /users/make-fraud/:id
func (s *UserService) MakeFraud(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if err := s.store.MarkFraud(ctx, id); err != nil {
		utils.RespondWithErr(w, err, "Failed to update user")
		return
	}
	logrus.WithFields(logrus.Fields{"userId": id, "by": utils.GetEmailFromRequest(r)}).Warn("user marked as fraud")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"modifiedCount": 1})
}
