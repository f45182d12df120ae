package requests

import (
	"context"
	"fmt"
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
	HasPendingRequest(ctx context.Context, kind, email string) (bool, error)
	InsertRequest(ctx context.Context, req *models.PromotionRequest) (string, error)
	ListRequests(ctx context.Context) ([]models.PromotionRequest, error)
	FindRequest(ctx context.Context, kind, id string) (*models.PromotionRequest, error)
	ResolveRequest(ctx context.Context, kind, id, status string) error
	SetUserRole(ctx context.Context, email, role, chefID string) error
}

type RequestService struct {
	store  Store
	now    func() time.Time
	chefID func() string
}

func NewRequestService(store Store) *RequestService {
	return &RequestService{store: store, now: time.Now, chefID: utils.NewChefID}
}

type applyInput struct {
	UserName string `json:"userName"`
}

// POST /become-chef
func (s *RequestService) BecomeChef(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.apply(w, r, models.RequestChef)
}

// POST /become-admin
func (s *RequestService) BecomeAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.apply(w, r, models.RequestAdmin)
}

func (s *RequestService) apply(w http.ResponseWriter, r *http.Request, kind string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in applyInput
	// the body is optional
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &in); err != nil {
			utils.RespondWithErr(w, err, "Invalid request data")
			return
		}
	}
	email := utils.GetEmailFromRequest(r)
	conflict := fmt.Sprintf("You already have a pending %s request", kind)

	pending, err := s.store.HasPendingRequest(ctx, kind, email)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to submit request")
		return
	}
	if pending {
		utils.RespondWithError(w, http.StatusConflict, conflict)
		return
	}

	id, err := s.store.InsertRequest(ctx, &models.PromotionRequest{
		UserEmail:     email,
		UserName:      in.UserName,
		RequestType:   kind,
		RequestStatus: models.RequestPending,
		RequestTime:   s.now().UTC(),
	})
	if err != nil {
		if utils.StatusFor(err) == http.StatusConflict {
			utils.RespondWithError(w, http.StatusConflict, conflict)
			return
		}
		utils.RespondWithErr(w, err, "Failed to submit request")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"insertedId": id})
}

// GET /admin/requests
func (s *RequestService) ListRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := s.store.ListRequests(ctx)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch requests")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// PATCH /admin/requests/accept/:type/:id
func (s *RequestService) AcceptRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	kind, id := ps.ByName("type"), ps.ByName("id")
	req, err := s.pendingRequest(ctx, kind, id)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to accept request")
		return
	}
	if _, err := s.store.FindUserByEmail(ctx, req.UserEmail); err != nil {
		utils.RespondWithErr(w, err, "Failed to accept request")
		return
	}

	// claim the request first so two admins cannot both promote
	if err := s.store.ResolveRequest(ctx, kind, id, models.RequestApproved); err != nil {
		utils.RespondWithErr(w, err, "Failed to accept request")
		return
	}

	var chefID string
	if kind == models.RequestChef {
		chefID = s.chefID()
	}
	if err := s.store.SetUserRole(ctx, req.UserEmail, kind, chefID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"requestId": id, "email": req.UserEmail}).
			Error("request approved but role update failed")
		utils.RespondWithErr(w, err, "Failed to update user role")
		return
	}

	logrus.WithFields(logrus.Fields{
		"requestId": id,
		"email":     req.UserEmail,
		"role":      kind,
		"by":        utils.GetEmailFromRequest(r),
	}).Info("promotion request approved")

	resp := utils.M{"requestStatus": models.RequestApproved, "role": kind}
	if chefID != "" {
		resp["chefId"] = chefID
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// PATCH /admin/requests/reject/:type/:id
func (s *RequestService) RejectRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	kind, id := ps.ByName("type"), ps.ByName("id")
	if _, err := s.pendingRequest(ctx, kind, id); err != nil {
		utils.RespondWithErr(w, err, "Failed to reject request")
		return
	}
	if err := s.store.ResolveRequest(ctx, kind, id, models.RequestRejected); err != nil {
		utils.RespondWithErr(w, err, "Failed to reject request")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"requestStatus": models.RequestRejected})
}

// pendingRequest loads a request and insists it is still pending.
func (s *RequestService) pendingRequest(ctx context.Context, kind, id string) (*models.PromotionRequest, error) {
	if !models.ValidRequestType(kind) {
		return nil, utils.Invalid(fmt.Sprintf("request type must be %q or %q", models.RequestChef, models.RequestAdmin))
	}
	req, err := s.store.FindRequest(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if req.RequestStatus != models.RequestPending {
		return nil, fmt.Errorf("request %s is already %s: %w", id, req.RequestStatus, utils.ErrConflict)
	}
	return req, nil
}
