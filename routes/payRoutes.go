package routes

import (
	"chefbazar/middleware"
	"chefbazar/orders"
	"chefbazar/ratelim"

	"github.com/julienschmidt/httprouter"
)

// AddOrderRoutes wires checkout, payment confirmation and order handlers.
func AddOrderRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	orderService := orders.NewOrderService(deps.Store, deps.Payments, deps.Locker, deps.Events, deps.ClientDomain)
	authed := middleware.Authenticate(deps.Verifier)

	router.POST("/create-checkout-session",
		middleware.Chain(
			rateLimiter.Limit,
			authed,
		)(orderService.CreateCheckoutSession),
	)

	// called by the client after the hosted payment page redirects back
	router.POST("/paymentsuccessfull",
		middleware.Chain(
			rateLimiter.Limit,
		)(orderService.PaymentSuccess),
	)

	router.GET("/my-orders", authed(orderService.MyOrders))
	router.GET("/chef-orders", authed(orderService.ChefOrders))
	router.GET("/orders/:id/receipt", authed(orderService.Receipt))

	router.PATCH("/orders/:id/status",
		middleware.Chain(
			rateLimiter.Limit,
			authed,
		)(orderService.UpdateOrderStatus),
	)
}
