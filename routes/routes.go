package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chefbazar/favorites"
	"chefbazar/meals"
	"chefbazar/middleware"
	"chefbazar/ratelim"
	"chefbazar/requests"
	"chefbazar/reviews"
	"chefbazar/users"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

func AddHealthRoutes(router *httprouter.Router, deps Deps) {
	router.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		fmt.Fprint(w, "Local Chef Bazar running")
	})

	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("health check failed")
			utils.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
	})
}

func AddMealRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	mealService := meals.NewMealService(deps.Store)
	authed := middleware.Authenticate(deps.Verifier)

	router.GET("/meals", mealService.GetMeals)
	router.GET("/latest-meals", mealService.GetLatestMeals)
	router.GET("/meals/:id", mealService.GetMeal)
	router.GET("/my-Meals/:email", mealService.GetChefMeals)

	router.POST("/save-meals", middleware.Chain(rateLimiter.Limit, authed)(mealService.SaveMeal))
	router.PATCH("/meals/:id", middleware.Chain(rateLimiter.Limit, authed)(mealService.UpdateMeal))
	router.DELETE("/meals/:id", middleware.Chain(rateLimiter.Limit, authed)(mealService.DeleteMeal))
}

func AddReviewRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	reviewService := reviews.NewReviewService(deps.Store)
	authed := middleware.Authenticate(deps.Verifier)

	router.GET("/reviews/:foodId", reviewService.GetReviewsByFood)
	router.GET("/my-reviews", authed(reviewService.MyReviews))
	router.POST("/reviews", middleware.Chain(rateLimiter.Limit, authed)(reviewService.AddReview))
	router.DELETE("/reviews/:id", middleware.Chain(rateLimiter.Limit, authed)(reviewService.DeleteReview))
}

func AddFavoriteRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	favoriteService := favorites.NewFavoriteService(deps.Store)
	authed := middleware.Authenticate(deps.Verifier)

	router.GET("/favorites", authed(favoriteService.GetFavorites))
	router.POST("/favorites", middleware.Chain(rateLimiter.Limit, authed)(favoriteService.AddFavorite))
	router.DELETE("/favorites/:id", middleware.Chain(rateLimiter.Limit, authed)(favoriteService.RemoveFavorite))
}

func AddUserRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	userService := users.NewUserService(deps.Store)
	authed := middleware.Authenticate(deps.Verifier)
	adminOnly := middleware.Chain(authed, middleware.RequireAdmin(deps.Store))

	router.POST("/user", rateLimiter.Limit(userService.UpsertUser))
	router.GET("/user/role", authed(userService.GetRole))
	router.GET("/users", adminOnly(userService.ListUsers))
	router.PATCH("/users/make-fraud/:id", middleware.Chain(rateLimiter.Limit, adminOnly)(userService.MakeFraud))
}

func AddRequestRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	requestService := requests.NewRequestService(deps.Store)
	authed := middleware.Authenticate(deps.Verifier)
	adminOnly := middleware.Chain(authed, middleware.RequireAdmin(deps.Store))

	router.POST("/become-chef", middleware.Chain(rateLimiter.Limit, authed)(requestService.BecomeChef))
	router.POST("/become-admin", middleware.Chain(rateLimiter.Limit, authed)(requestService.BecomeAdmin))

	router.GET("/admin/requests", adminOnly(requestService.ListRequests))
	router.PATCH("/admin/requests/accept/:type/:id", middleware.Chain(rateLimiter.Limit, adminOnly)(requestService.AcceptRequest))
	router.PATCH("/admin/requests/reject/:type/:id", middleware.Chain(rateLimiter.Limit, adminOnly)(requestService.RejectRequest))
}
