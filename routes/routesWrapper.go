package routes

import (
	"context"

	"chefbazar/auth"
	"chefbazar/checkout"
	"chefbazar/favorites"
	"chefbazar/meals"
	"chefbazar/mq"
	"chefbazar/orders"
	"chefbazar/ratelim"
	"chefbazar/rdx"
	"chefbazar/requests"
	"chefbazar/reviews"
	"chefbazar/users"

	"github.com/julienschmidt/httprouter"
)

// Store is everything the route groups need from persistence. *db.Store
// satisfies it.
type Store interface {
	meals.Store
	orders.Store
	reviews.Store
	favorites.Store
	users.Store
	requests.Store
	Ping(ctx context.Context) error
}

// Deps are the collaborators built in main and shared by all route groups.
type Deps struct {
	Store        Store
	Verifier     auth.Verifier
	Payments     checkout.Provider
	Locker       rdx.Locker   // nil without Redis
	Events       mq.Publisher // nil without Redis
	ClientDomain string
}

func RoutesWrapper(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	AddHealthRoutes(router, deps)
	AddMealRoutes(router, deps, rateLimiter)
	AddOrderRoutes(router, deps, rateLimiter)
	AddReviewRoutes(router, deps, rateLimiter)
	AddFavoriteRoutes(router, deps, rateLimiter)
	AddUserRoutes(router, deps, rateLimiter)
	AddRequestRoutes(router, deps, rateLimiter)
}
