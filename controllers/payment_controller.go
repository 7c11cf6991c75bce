package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/services"
	"storefront-service/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	payments *services.PaymentService
	watchers *services.WatcherManager
	logger   *zap.Logger
}

func NewPaymentController(
	payments *services.PaymentService,
	watchers *services.WatcherManager,
	logger *zap.Logger,
) *PaymentController {
	return &PaymentController{
		payments: payments,
		watchers: watchers,
		logger:   logger,
	}
}

// GetSession returns the current payment slot with the watcher's live
// state and remaining window. Reloading the PIX page calls this; when no
// session exists the buyer is sent back to checkout.
func (pc *PaymentController) GetSession(c *gin.Context) {
	sessionID := middleware.SessionID(c)

	session, svcErr := pc.payments.Session(c.Request.Context(), sessionID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "no payment in progress",
			"redirect": "/checkout",
		})
		return
	}

	// Re-attach the watcher after a restart so the countdown and polling
	// continue against the persisted expiry.
	pc.watchers.Ensure(sessionID, session)

	state, remaining, _ := pc.watchers.Snapshot(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"external_id":         session.ExternalID,
		"pix_code":            session.PixCode,
		"qr_image":            session.QRImage,
		"amount":              session.Amount,
		"amount_formatted":    utils.FormatBRL(session.Amount),
		"expires_at":          session.ExpiresAt,
		"expiry_source":       session.ExpirySource,
		"state":               state,
		"remaining_seconds":   int64(remaining.Seconds()),
		"remaining_formatted": utils.FormatMMSS(remaining),
	})
}

// GetStatus proxies a one-off gateway status query for the order.
func (pc *PaymentController) GetStatus(c *gin.Context) {
	status, svcErr := pc.payments.Status(c.Request.Context(), c.Param("externalId"))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CancelSession handles user cancellation: the watcher stops and the
// slot plus the persisted expiry are dropped.
func (pc *PaymentController) CancelSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	session, svcErr := pc.payments.Session(ctx, sessionID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	pc.watchers.Cancel(sessionID)

	if session != nil {
		if err := pc.payments.Discard(ctx, sessionID, session.ExternalID); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}
