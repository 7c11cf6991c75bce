package routes

import (
	"net/http"

	"storefront-service/controllers"
	"storefront-service/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SetupRoutes wires the storefront HTTP surface. Everything except the
// health probe requires the session header.
func SetupRoutes(
	r *gin.Engine,
	cart *controllers.CartController,
	checkout *controllers.CheckoutController,
	payment *controllers.PaymentController,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	session := r.Group("/", middleware.RequireSession())

	cartGroup := session.Group("/cart")
	{
		cartGroup.GET("", cart.GetCart)
		cartGroup.POST("/items", cart.AddItem)
		cartGroup.POST("/items/:id/increment", cart.Increment)
		cartGroup.POST("/items/:id/decrement", cart.Decrement)
		cartGroup.DELETE("/items/:id", cart.RemoveItem)
	}

	checkoutGroup := session.Group("/checkout")
	{
		checkoutGroup.GET("", checkout.GetDraft)
		checkoutGroup.GET("/cep/:cep", checkout.LookupCEP)
		checkoutGroup.POST("/identification", checkout.SubmitIdentification)
		checkoutGroup.POST("/delivery", checkout.SubmitDelivery)
		checkoutGroup.POST("/confirm", middleware.RateLimit(rate.Limit(1), 3), checkout.Confirm)
	}

	paymentGroup := session.Group("/payments")
	{
		paymentGroup.GET("/session", payment.GetSession)
		paymentGroup.DELETE("/session", payment.CancelSession)
		paymentGroup.GET("/:externalId/status", payment.GetStatus)
	}
}
