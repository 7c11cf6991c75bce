package controllers

import (
	"errors"
	"net/http"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"
	"storefront-service/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartController struct {
	cart   *services.CartService
	logger *zap.Logger
}

func NewCartController(cart *services.CartService, logger *zap.Logger) *CartController {
	return &CartController{cart: cart, logger: logger}
}

type addItemRequest struct {
	ID           string  `json:"id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	VariantLabel string  `json:"variant_label"`
	UnitPrice    float64 `json:"unit_price" binding:"required"`
	Quantity     int     `json:"quantity"`
	Image        string  `json:"image"`
}

func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cart.Get(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		cc.logger.Error("failed to load cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	respondCart(c, cart)
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	line := models.CartLine{
		ID:           req.ID,
		Name:         req.Name,
		VariantLabel: req.VariantLabel,
		UnitPrice:    req.UnitPrice,
		Image:        req.Image,
	}

	cart, err := cc.cart.AddItem(c.Request.Context(), middleware.SessionID(c), line, req.Quantity)
	if cc.handleCartError(c, err) {
		return
	}
	respondCart(c, cart)
}

func (cc *CartController) Increment(c *gin.Context) {
	cart, err := cc.cart.Increment(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	if cc.handleCartError(c, err) {
		return
	}
	respondCart(c, cart)
}

func (cc *CartController) Decrement(c *gin.Context) {
	cart, err := cc.cart.Decrement(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	if cc.handleCartError(c, err) {
		return
	}
	respondCart(c, cart)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	cart, err := cc.cart.Remove(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	if cc.handleCartError(c, err) {
		return
	}
	respondCart(c, cart)
}

// handleCartError writes the error response and reports whether one was
// written.
func (cc *CartController) handleCartError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrQuantityLimit):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cart quantity limit reached"})
	case errors.Is(err, services.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
	default:
		cc.logger.Error("cart operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart operation failed"})
	}
	return true
}

func respondCart(c *gin.Context, cart *models.Cart) {
	subtotal := cart.Subtotal()
	c.JSON(http.StatusOK, gin.H{
		"items":              cart.Items,
		"total_quantity":     cart.TotalQuantity(),
		"subtotal":           subtotal,
		"subtotal_formatted": utils.FormatBRL(subtotal),
	})
}
