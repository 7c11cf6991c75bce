package controllers

import (
	"net/http"
	"sync"

	"storefront-service/middleware"
	"storefront-service/services"
	"storefront-service/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutController drives the checkout wizard and, on confirmation,
// hands the frozen draft to the payment service.
type CheckoutController struct {
	checkout *services.CheckoutService
	payments *services.PaymentService
	watchers *services.WatcherManager
	logger   *zap.Logger

	// one confirm at a time per session; double-clicking the pay button
	// must not create two gateway transactions
	inFlight sync.Map
}

func NewCheckoutController(
	checkout *services.CheckoutService,
	payments *services.PaymentService,
	watchers *services.WatcherManager,
	logger *zap.Logger,
) *CheckoutController {
	return &CheckoutController{
		checkout: checkout,
		payments: payments,
		watchers: watchers,
		logger:   logger,
	}
}

func (cc *CheckoutController) GetDraft(c *gin.Context) {
	draft, svcErr := cc.checkout.Draft(c.Request.Context(), middleware.SessionID(c))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (cc *CheckoutController) LookupCEP(c *gin.Context) {
	addr, fieldErrs, svcErr := cc.checkout.LookupCEP(c.Request.Context(), middleware.SessionID(c), c.Param("cep"))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if fieldErrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
		return
	}
	c.JSON(http.StatusOK, addr)
}

func (cc *CheckoutController) SubmitIdentification(c *gin.Context) {
	var in services.IdentificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fieldErrs, svcErr := cc.checkout.SubmitIdentification(c.Request.Context(), middleware.SessionID(c), in)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": 2})
}

func (cc *CheckoutController) SubmitDelivery(c *gin.Context) {
	var in services.DeliveryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fieldErrs, svcErr := cc.checkout.SubmitDelivery(c.Request.Context(), middleware.SessionID(c), in)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": 3})
}

// Confirm freezes the draft and creates the PIX transaction. The payment
// session and watcher start here; a failure leaves the draft on step 3
// so the buyer can retry.
func (cc *CheckoutController) Confirm(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	if _, busy := cc.inFlight.LoadOrStore(sessionID, struct{}{}); busy {
		c.JSON(http.StatusConflict, gin.H{"error": "payment already being created"})
		return
	}
	defer cc.inFlight.Delete(sessionID)

	draft, cart, svcErr := cc.checkout.Confirm(c.Request.Context(), sessionID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	utmQuery := map[string]string{}
	for key, vals := range c.Request.URL.Query() {
		if len(vals) > 0 {
			utmQuery[key] = vals[0]
		}
	}

	session, svcErr := cc.payments.CreatePayment(c.Request.Context(), sessionID, draft, cart, utmQuery, c.ClientIP())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	cc.watchers.Begin(sessionID, session)

	c.JSON(http.StatusOK, gin.H{
		"external_id":      session.ExternalID,
		"pix_code":         session.PixCode,
		"qr_image":         session.QRImage,
		"amount":           session.Amount,
		"amount_formatted": utils.FormatBRL(session.Amount),
		"expires_at":       session.ExpiresAt,
		"expiry_source":    session.ExpirySource,
	})
}

func respondServiceError(c *gin.Context, err *services.ServiceError) {
	c.JSON(err.StatusCode, gin.H{"error": err.Message})
}
