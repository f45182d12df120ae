package orders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chefbazar/checkout"
	"chefbazar/models"
	"chefbazar/mq"
	"chefbazar/policy"
	"chefbazar/rdx"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// lockTTL bounds how long one confirmation may hold the per-session lock.
const lockTTL = 10 * time.Second

type Store interface {
	policy.UserFinder
	FindMeal(ctx context.Context, id string) (*models.Meal, error)
	CreateOrderOnce(ctx context.Context, order *models.Order) (string, bool, error)
	OrdersByCustomer(ctx context.Context, email string) ([]models.Order, error)
	OrdersByChef(ctx context.Context, email string) ([]models.Order, error)
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, chefEmail, status string) error
}

type OrderService struct {
	store        Store
	payments     checkout.Provider
	locker       rdx.Locker
	events       mq.Publisher
	clientDomain string
	now          func() time.Time
}

// NewOrderService wires the order workflow. locker and events may be nil:
// confirmations then rely on the database transaction alone and no order
// events are published.
func NewOrderService(store Store, payments checkout.Provider, locker rdx.Locker, events mq.Publisher, clientDomain string) *OrderService {
	return &OrderService{
		store:        store,
		payments:     payments,
		locker:       locker,
		events:       events,
		clientDomain: clientDomain,
		now:          time.Now,
	}
}

type checkoutInput struct {
	MealID   string  `json:"mealId" validate:"required"`
	FoodName string  `json:"foodName"`
	Price    float64 `json:"price" validate:"gt=0"`
	Quantity int64   `json:"quantity" validate:"gt=0"`
	Image    string  `json:"image"`
	Customer struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"customer"`
}

// POST /create-checkout-session
func (s *OrderService) CreateCheckoutSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	email := utils.GetEmailFromRequest(r)
	caller, err := policy.LoadCaller(ctx, s.store, email)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to load user")
		return
	}
	if err := policy.Check(caller, policy.PlaceOrder); err != nil {
		utils.RespondWithErr(w, err, "Forbidden Access!")
		return
	}

	var in checkoutInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid order data")
		return
	}

	meal, err := s.store.FindMeal(ctx, in.MealID)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch meal")
		return
	}
	if in.Quantity > meal.Quantity {
		utils.RespondWithError(w, http.StatusBadRequest, "Requested quantity exceeds available stock")
		return
	}

	customerName := in.Customer.Name
	if customerName == "" {
		customerName = caller.Name
	}
	foodName := meal.FoodName
	if foodName == "" {
		foodName = in.FoodName
	}
	image := meal.Image
	if image == "" {
		image = in.Image
	}

	redirect, err := s.payments.CreateSession(ctx, checkout.SessionRequest{
		FoodName:      foodName,
		Image:         image,
		UnitPrice:     meal.Price,
		Quantity:      in.Quantity,
		CustomerEmail: email,
		Metadata: map[string]string{
			"mealId":          in.MealID,
			"customerName":    customerName,
			"customerEmail":   email,
			"customerAddress": in.Customer.Address,
			"quantity":        strconv.FormatInt(in.Quantity, 10),
		},
		SuccessURL: s.clientDomain + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientDomain + "/meals/" + url.PathEscape(in.MealID),
	})
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to create payment session")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"url": redirect})
}

type confirmInput struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// POST /paymentsuccessfull
func (s *OrderService) PaymentSuccess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var in confirmInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid payment data")
		return
	}

	if s.locker != nil {
		key := "payment_lock:" + in.SessionID
		acquired, err := s.locker.Acquire(ctx, key, lockTTL)
		if err != nil {
			utils.RespondWithErr(w, err, "Failed to confirm payment")
			return
		}
		if !acquired {
			utils.RespondWithError(w, http.StatusTooManyRequests, "Payment is already being processed, please retry")
			return
		}
		defer func() {
			if err := s.locker.Release(context.Background(), key); err != nil {
				logrus.WithError(err).WithField("key", key).Warn("failed to release payment lock")
			}
		}()
	}

	sess, err := s.payments.GetSession(ctx, in.SessionID)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to retrieve payment session")
		return
	}
	if sess.Status != checkout.StatusComplete {
		utils.RespondWithError(w, http.StatusBadRequest, "Payment is not complete")
		return
	}

	order, err := s.orderFromSession(ctx, sess)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to confirm payment")
		return
	}

	orderID, created, err := s.store.CreateOrderOnce(ctx, order)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to save order")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		logrus.WithFields(logrus.Fields{
			"orderId":       orderID,
			"transactionId": order.TransactionID,
			"mealId":        order.MealID,
			"quantity":      order.Quantity,
		}).Info("order placed")
		s.emit(ctx, mq.OrderEvent{
			Type:          mq.OrderPlaced,
			OrderID:       orderID,
			MealID:        order.MealID,
			TransactionID: order.TransactionID,
			ChefEmail:     order.Chef.Email,
			CustomerEmail: order.Customer.Email,
			Quantity:      order.Quantity,
			Status:        order.OrderStatus,
		})
	}
	utils.RespondWithJSON(w, status, utils.M{
		"transactionId": order.TransactionID,
		"orderId":       orderID,
		"created":       created,
	})
}

// orderFromSession rebuilds the order from the metadata stamped on the
// session at checkout and the meal as it is now.
func (s *OrderService) orderFromSession(ctx context.Context, sess *checkout.Session) (*models.Order, error) {
	md := sess.Metadata
	if sess.PaymentIntentID == "" {
		return nil, fmt.Errorf("session %s has no payment intent: %w", sess.ID, utils.ErrUpstream)
	}
	qty, err := strconv.ParseInt(md["quantity"], 10, 64)
	if err != nil || qty <= 0 {
		return nil, utils.Invalid("session carries no valid quantity")
	}

	meal, err := s.store.FindMeal(ctx, md["mealId"])
	if err != nil {
		return nil, err
	}

	return &models.Order{
		MealID:        meal.ID.Hex(),
		FoodName:      meal.FoodName,
		Image:         meal.Image,
		TransactionID: sess.PaymentIntentID,
		Customer: models.Customer{
			Name:    md["customerName"],
			Email:   md["customerEmail"],
			Address: md["customerAddress"],
		},
		Chef:        meal.Chef,
		OrderStatus: models.OrderPending,
		Quantity:    qty,
		Price:       meal.Price,
		TotalPrice:  meal.Price * float64(qty),
		CreatedAt:   s.now().UTC(),
	}, nil
}

// GET /my-orders
func (s *OrderService) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.store.OrdersByCustomer(ctx, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch orders")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

// GET /chef-orders
func (s *OrderService) ChefOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.store.OrdersByChef(ctx, utils.GetEmailFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch orders")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, orders)
}

type statusInput struct {
	OrderStatus string `json:"orderStatus" validate:"required,oneof=accepted delivered cancelled"`
}

// PATCH /orders/:id/status
func (s *OrderService) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in statusInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err, "Invalid order status")
		return
	}

	id := ps.ByName("id")
	err := s.store.UpdateOrderStatus(ctx, id, utils.GetEmailFromRequest(r), in.OrderStatus)
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to update order")
		return
	}
	s.emit(ctx, mq.OrderEvent{
		Type:      mq.OrderStatusChanged,
		OrderID:   id,
		ChefEmail: utils.GetEmailFromRequest(r),
		Status:    in.OrderStatus,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"orderId": id, "orderStatus": in.OrderStatus})
}

// emit publishes an order event. The order is already stored, so a publish
// failure is logged and otherwise ignored.
func (s *OrderService) emit(ctx context.Context, ev mq.OrderEvent) {
	if s.events == nil {
		return
	}
	ev.At = s.now().UTC()
	if err := s.events.Publish(ctx, mq.OrderEventsChannel, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"orderId": ev.OrderID, "type": ev.Type}).Warn("order event not published")
	}
}
