// Package testutil provides an in-memory stand-in for db.Store and request
// helpers shared by the handler tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chefbazar/models"
	"chefbazar/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore mirrors the db.Store methods the handlers use, including the
// unique constraints enforced by indexes in Mongo.
type MemStore struct {
	mu sync.Mutex

	Meals     map[primitive.ObjectID]*models.Meal
	Orders    map[primitive.ObjectID]*models.Order
	Reviews   map[primitive.ObjectID]*models.Review
	Users     map[primitive.ObjectID]*models.User
	Favorites map[primitive.ObjectID]*models.Favorite
	Requests  map[string]map[primitive.ObjectID]*models.PromotionRequest

	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemStore() *MemStore {
	return &MemStore{
		Meals:     map[primitive.ObjectID]*models.Meal{},
		Orders:    map[primitive.ObjectID]*models.Order{},
		Reviews:   map[primitive.ObjectID]*models.Review{},
		Users:     map[primitive.ObjectID]*models.User{},
		Favorites: map[primitive.ObjectID]*models.Favorite{},
		Requests: map[string]map[primitive.ObjectID]*models.PromotionRequest{
			models.RequestChef:  {},
			models.RequestAdmin: {},
		},
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, fmt.Errorf("id %q: %w", id, utils.ErrNotFound)
	}
	return oid, nil
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, utils.ErrNotFound)
}

func (m *MemStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fail
}

// ---- users

// AddUser seeds a user and returns its id.
func (m *MemStore) AddUser(u models.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	m.Users[u.ID] = &u
	return u.ID.Hex()
}

func (m *MemStore) userByEmail(email string) *models.User {
	for _, u := range m.Users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// User returns a copy of the stored user with email, or nil.
func (m *MemStore) User(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.userByEmail(email); u != nil {
		cp := *u
		return &cp
	}
	return nil
}

func (m *MemStore) UpsertLogin(_ context.Context, user models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	ts := time.Now().UTC()
	if existing := m.userByEmail(user.Email); existing != nil {
		existing.LastLoggedIn = ts
		return false, nil
	}
	u := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		Name:         user.Name,
		Image:        user.Image,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		CreatedAt:    ts,
		LastLoggedIn: ts,
	}
	m.Users[u.ID] = u
	return true, nil
}

func (m *MemStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	if u := m.userByEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, notFound("user", email)
}

func (m *MemStore) ListUsersExcept(_ context.Context, email string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := []models.User{}
	for _, u := range m.Users {
		if u.Email != email {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) MarkFraud(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	u, ok := m.Users[oid]
	if !ok {
		return notFound("user", id)
	}
	u.Status = models.StatusFraud
	return nil
}

func (m *MemStore) SetUserRole(_ context.Context, email, role, chefID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	u := m.userByEmail(email)
	if u == nil {
		return notFound("user", email)
	}
	u.Role = role
	if chefID != "" {
		u.ChefID = chefID
	}
	return nil
}

// ---- meals

// AddMeal seeds a meal and returns its id.
func (m *MemStore) AddMeal(meal models.Meal) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if meal.ID.IsZero() {
		meal.ID = primitive.NewObjectID()
	}
	m.Meals[meal.ID] = &meal
	return meal.ID.Hex()
}

// Meal returns a copy of the stored meal, or nil.
func (m *MemStore) Meal(id string) *models.Meal {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := parseID(id)
	if err != nil {
		return nil
	}
	if meal, ok := m.Meals[oid]; ok {
		cp := *meal
		return &cp
	}
	return nil
}

func (m *MemStore) InsertMeal(_ context.Context, meal *models.Meal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	if meal.ID.IsZero() {
		meal.ID = primitive.NewObjectID()
	}
	cp := *meal
	m.Meals[meal.ID] = &cp
	return meal.ID.Hex(), nil
}

func (m *MemStore) mealsWhere(keep func(*models.Meal) bool) []models.Meal {
	out := []models.Meal{}
	for _, meal := range m.Meals {
		if keep(meal) {
			out = append(out, *meal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemStore) ListMeals(context.Context) ([]models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.mealsWhere(func(*models.Meal) bool { return true }), nil
}

func (m *MemStore) LatestMeals(_ context.Context, limit int64) ([]models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := m.mealsWhere(func(*models.Meal) bool { return true })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) MealsByChef(_ context.Context, email string) ([]models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.mealsWhere(func(meal *models.Meal) bool { return meal.Chef.Email == email }), nil
}

func (m *MemStore) FindMeal(_ context.Context, id string) (*models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	meal, ok := m.Meals[oid]
	if !ok {
		return nil, notFound("meal", id)
	}
	cp := *meal
	return &cp, nil
}

func (m *MemStore) UpdateMeal(_ context.Context, id, chefEmail string, u models.MealUpdate) (*models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	meal, ok := m.Meals[oid]
	if !ok || meal.Chef.Email != chefEmail {
		return nil, notFound("meal", id)
	}
	if u.FoodName != nil {
		meal.FoodName = *u.FoodName
	}
	if u.Price != nil {
		meal.Price = *u.Price
	}
	if u.Quantity != nil {
		meal.Quantity = *u.Quantity
	}
	if u.Image != nil {
		meal.Image = *u.Image
	}
	if u.Ingredients != nil {
		meal.Ingredients = *u.Ingredients
	}
	if u.EstimatedDeliveryTime != nil {
		meal.EstimatedDeliveryTime = *u.EstimatedDeliveryTime
	}
	if u.DeliveryArea != nil {
		meal.DeliveryArea = *u.DeliveryArea
	}
	cp := *meal
	return &cp, nil
}

func (m *MemStore) DeleteMeal(_ context.Context, id, chefEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	meal, ok := m.Meals[oid]
	if !ok || meal.Chef.Email != chefEmail {
		return notFound("meal", id)
	}
	delete(m.Meals, oid)
	return nil
}

func (m *MemStore) SetMealRating(_ context.Context, id string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	meal, ok := m.Meals[oid]
	if !ok {
		return notFound("meal", id)
	}
	meal.Rating = rating
	return nil
}

// ---- orders

func (m *MemStore) CreateOrderOnce(_ context.Context, order *models.Order) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", false, m.Fail
	}
	for _, o := range m.Orders {
		if o.TransactionID == order.TransactionID {
			return o.ID.Hex(), false, nil
		}
	}
	oid, err := parseID(order.MealID)
	if err != nil {
		return "", false, err
	}
	meal, ok := m.Meals[oid]
	if !ok {
		return "", false, notFound("meal", order.MealID)
	}
	meal.Quantity -= order.Quantity
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	cp := *order
	m.Orders[order.ID] = &cp
	return order.ID.Hex(), true, nil
}

// AddOrder seeds an order and returns its id.
func (m *MemStore) AddOrder(o models.Order) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	m.Orders[o.ID] = &o
	return o.ID.Hex()
}

func (m *MemStore) ordersWhere(keep func(*models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range m.Orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemStore) OrdersByCustomer(_ context.Context, email string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.ordersWhere(func(o *models.Order) bool { return o.Customer.Email == email }), nil
}

func (m *MemStore) OrdersByChef(_ context.Context, email string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.ordersWhere(func(o *models.Order) bool { return o.Chef.Email == email }), nil
}

func (m *MemStore) FindOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, ok := m.Orders[oid]
	if !ok {
		return nil, notFound("order", id)
	}
	cp := *o
	return &cp, nil
}

func (m *MemStore) UpdateOrderStatus(_ context.Context, id, chefEmail, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	o, ok := m.Orders[oid]
	if !ok || o.Chef.Email != chefEmail {
		return notFound("order", id)
	}
	o.OrderStatus = status
	return nil
}

// ---- reviews

func (m *MemStore) InsertReview(_ context.Context, review *models.Review) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	cp := *review
	m.Reviews[review.ID] = &cp
	return review.ID.Hex(), nil
}

func (m *MemStore) reviewsWhere(keep func(*models.Review) bool) []models.Review {
	out := []models.Review{}
	for _, rv := range m.Reviews {
		if keep(rv) {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (m *MemStore) ReviewsByFood(_ context.Context, foodID string) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.reviewsWhere(func(rv *models.Review) bool { return rv.FoodID == foodID }), nil
}

func (m *MemStore) ReviewsByReviewer(_ context.Context, email string) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.reviewsWhere(func(rv *models.Review) bool { return rv.ReviewerEmail == email }), nil
}

func (m *MemStore) AverageRating(_ context.Context, foodID string) (float64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, 0, m.Fail
	}
	var sum float64
	var n int64
	for _, rv := range m.Reviews {
		if rv.FoodID == foodID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

func (m *MemStore) DeleteReview(_ context.Context, id, email string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	rv, ok := m.Reviews[oid]
	if !ok || rv.ReviewerEmail != email {
		return nil, notFound("review", id)
	}
	delete(m.Reviews, oid)
	return rv, nil
}

// ---- favorites

func (m *MemStore) FavoriteExists(_ context.Context, mealID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	for _, f := range m.Favorites {
		if f.MealID == mealID && f.UserEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) InsertFavorite(_ context.Context, fav *models.Favorite) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	for _, f := range m.Favorites {
		if f.MealID == fav.MealID && f.UserEmail == fav.UserEmail {
			return "", fmt.Errorf("insert favorite: %w", utils.ErrConflict)
		}
	}
	if fav.ID.IsZero() {
		fav.ID = primitive.NewObjectID()
	}
	cp := *fav
	m.Favorites[fav.ID] = &cp
	return fav.ID.Hex(), nil
}

func (m *MemStore) FavoritesByUser(_ context.Context, email string) ([]models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := []models.Favorite{}
	for _, f := range m.Favorites {
		if f.UserEmail == email {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedTime.After(out[j].AddedTime) })
	return out, nil
}

func (m *MemStore) DeleteFavorite(_ context.Context, id, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	f, ok := m.Favorites[oid]
	if !ok || f.UserEmail != email {
		return notFound("favorite", id)
	}
	delete(m.Favorites, oid)
	return nil
}

// ---- promotion requests

func (m *MemStore) requests(kind string) (map[primitive.ObjectID]*models.PromotionRequest, error) {
	reqs, ok := m.Requests[kind]
	if !ok {
		return nil, utils.Invalid(fmt.Sprintf("unknown request type %q", kind))
	}
	return reqs, nil
}

func (m *MemStore) HasPendingRequest(_ context.Context, kind, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	reqs, err := m.requests(kind)
	if err != nil {
		return false, err
	}
	for _, rq := range reqs {
		if rq.UserEmail == email && rq.RequestStatus == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) InsertRequest(_ context.Context, req *models.PromotionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	reqs, err := m.requests(req.RequestType)
	if err != nil {
		return "", err
	}
	for _, rq := range reqs {
		if rq.UserEmail == req.UserEmail && rq.RequestStatus == models.RequestPending {
			return "", fmt.Errorf("insert request: %w", utils.ErrConflict)
		}
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	cp := *req
	reqs[req.ID] = &cp
	return req.ID.Hex(), nil
}

func (m *MemStore) ListRequests(context.Context) ([]models.PromotionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	out := []models.PromotionRequest{}
	for kind, reqs := range m.Requests {
		for _, rq := range reqs {
			cp := *rq
			cp.RequestType = kind
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestTime.After(out[j].RequestTime) })
	return out, nil
}

func (m *MemStore) FindRequest(_ context.Context, kind, id string) (*models.PromotionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	reqs, err := m.requests(kind)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	rq, ok := reqs[oid]
	if !ok {
		return nil, notFound("request", id)
	}
	cp := *rq
	cp.RequestType = kind
	return &cp, nil
}

func (m *MemStore) ResolveRequest(_ context.Context, kind, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	reqs, err := m.requests(kind)
	if err != nil {
		return err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	rq, ok := reqs[oid]
	if !ok || rq.RequestStatus != models.RequestPending {
		return fmt.Errorf("request %s is not pending: %w", id, utils.ErrConflict)
	}
	rq.RequestStatus = status
	return nil
}
