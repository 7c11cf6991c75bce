package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"storefront-service/models"
	"storefront-service/providers"
	"storefront-service/repository"
	"storefront-service/utils"

	"go.uber.org/zap"
)

// PaymentService creates PIX transactions and owns the per-session
// payment slot.
type PaymentService struct {
	gateway   providers.PaymentGateway
	analytics providers.AnalyticsForwarder
	sessions  repository.SessionRepository
	window    time.Duration
	platform  string
	logger    *zap.Logger

	nowFn func() time.Time
}

func NewPaymentService(
	gateway providers.PaymentGateway,
	analytics providers.AnalyticsForwarder,
	sessions repository.SessionRepository,
	window time.Duration,
	platform string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		analytics: analytics,
		sessions:  sessions,
		window:    window,
		platform:  platform,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// AmountInCents converts a real-denominated value to integer cents,
// rounding to the nearest cent.
func AmountInCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CreatePayment creates a PIX transaction at the gateway and stores the
// resulting payment session. Writing to the fixed per-session slot means
// a second checkout overwrites the first: last write wins.
func (s *PaymentService) CreatePayment(
	ctx context.Context,
	sessionID string,
	draft *models.OrderDraft,
	cart *models.Cart,
	utmQuery map[string]string,
	clientIP string,
) (*models.PaymentSession, *ServiceError) {
	if draft.Total <= 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "invalid payment amount"}
	}
	if len(cart.Items) == 0 {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "cart is empty"}
	}

	now := s.nowFn()
	externalID := fmt.Sprintf("order_%d", now.UnixNano())

	items := make([]models.PaymentItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, models.PaymentItem{
			ID:          it.ID,
			Name:        it.Name,
			AmountCents: AmountInCents(it.UnitPrice),
			Quantity:    it.Quantity,
		})
	}

	req := models.PaymentRequest{
		ExternalID:    externalID,
		AmountCents:   AmountInCents(draft.Total),
		BuyerName:     draft.Customer.Name,
		BuyerEmail:    draft.Customer.Email,
		BuyerDocument: utils.OnlyDigits(draft.Customer.CPF),
		BuyerPhone:    "55" + utils.OnlyDigits(draft.Customer.Phone),
		BuyerIP:       clientIP,
		Items:         items,
		Tracking:      buildTracking(utmQuery),
	}

	payment, err := s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		var gwErr *providers.GatewayError
		if errors.As(err, &gwErr) {
			s.logger.Error("gateway rejected transaction",
				zap.String("external_id", externalID),
				zap.Int("status", gwErr.StatusCode),
				zap.String("detail", gwErr.Detail),
				zap.Error(err))
			return nil, &ServiceError{StatusCode: gwErr.StatusCode, Message: gwErr.Message}
		}
		s.logger.Error("gateway unreachable", zap.String("external_id", externalID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "could not reach the payment gateway"}
	}

	expiresAt, expirySource := s.resolveExpiry(now, payment.ExpiresAt)

	session := &models.PaymentSession{
		ExternalID:   externalID,
		GatewayID:    payment.ID,
		PixCode:      payment.PixCode,
		QRImage:      payment.QRCodeBase64,
		Amount:       draft.Total,
		ExpiresAt:    expiresAt,
		ExpirySource: expirySource,
		CreatedAt:    now,
	}

	if err := s.sessions.SaveSession(ctx, sessionID, session); err != nil {
		s.logger.Error("failed to save payment session", zap.String("external_id", externalID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to save payment session"}
	}

	s.stageAnalytics(ctx, externalID, now, draft, cart, req, utmQuery)

	s.logger.Info("payment created",
		zap.String("external_id", externalID),
		zap.Float64("amount", draft.Total),
		zap.String("expiry_source", expirySource))
	return session, nil
}

// resolveExpiry prefers the gateway's own expiry and falls back to the
// local payment window when the gateway omits or mangles it.
func (s *PaymentService) resolveExpiry(now time.Time, gatewayExpiry string) (time.Time, string) {
	if gatewayExpiry != "" {
		if t, err := time.Parse(time.RFC3339, gatewayExpiry); err == nil && t.After(now) {
			return t, models.ExpirySourceServer
		}
	}
	return now.Add(s.window), models.ExpirySourceFallback
}

// Session returns the current payment slot, nil when empty.
func (s *PaymentService) Session(ctx context.Context, sessionID string) (*models.PaymentSession, *ServiceError) {
	session, err := s.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load payment session", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to load payment session"}
	}
	return session, nil
}

// Discard clears the payment slot and its persisted per-order records
// after a user cancellation.
func (s *PaymentService) Discard(ctx context.Context, sessionID, externalID string) *ServiceError {
	if err := s.sessions.ClearSession(ctx, sessionID); err != nil {
		s.logger.Error("failed to clear payment session", zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to cancel payment"}
	}
	if err := s.sessions.DeleteOrderExpiry(ctx, externalID); err != nil {
		s.logger.Warn("failed to delete order expiry", zap.String("order_id", externalID), zap.Error(err))
	}
	if err := s.sessions.DeleteOrderAnalytics(ctx, externalID); err != nil {
		s.logger.Warn("failed to delete staged analytics", zap.String("order_id", externalID), zap.Error(err))
	}
	return nil
}

// Status proxies a one-off status query to the gateway.
func (s *PaymentService) Status(ctx context.Context, externalID string) (string, *ServiceError) {
	status, err := s.gateway.TransactionStatus(ctx, externalID)
	if err != nil {
		var gwErr *providers.GatewayError
		if errors.As(err, &gwErr) {
			return "", &ServiceError{StatusCode: gwErr.StatusCode, Message: gwErr.Message}
		}
		s.logger.Error("status query failed", zap.String("external_id", externalID), zap.Error(err))
		return "", &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to query payment status"}
	}
	return status, nil
}

// stageAnalytics persists the pending-order payload keyed by order id,
// then forwards the "waiting_payment" event in the background. The
// persisted copy is what gets resent as "paid" after confirmation.
func (s *PaymentService) stageAnalytics(
	ctx context.Context,
	externalID string,
	createdAt time.Time,
	draft *models.OrderDraft,
	cart *models.Cart,
	req models.PaymentRequest,
	utmQuery map[string]string,
) {
	if !s.analytics.Enabled() {
		return
	}

	products := make([]models.UtmifyProduct, 0, len(cart.Items))
	for _, it := range cart.Items {
		products = append(products, models.UtmifyProduct{
			ID:           it.ID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			PriceInCents: AmountInCents(it.UnitPrice),
		})
	}

	totalCents := AmountInCents(draft.Total)
	order := &models.UtmifyOrder{
		OrderID:       externalID,
		Platform:      s.platform,
		PaymentMethod: "pix",
		Status:        "waiting_payment",
		CreatedAt:     providers.FormatUtmifyDate(createdAt),
		Customer: models.UtmifyCustomer{
			Name:     draft.Customer.Name,
			Email:    draft.Customer.Email,
			Phone:    req.BuyerPhone,
			Document: req.BuyerDocument,
			Country:  "BR",
			IP:       req.BuyerIP,
		},
		Products: products,
		TrackingParameters: models.UtmifyTracking{
			Src:         queryParam(utmQuery, "src"),
			Sck:         queryParam(utmQuery, "sck"),
			UtmSource:   queryParam(utmQuery, "utm_source"),
			UtmCampaign: queryParam(utmQuery, "utm_campaign"),
			UtmMedium:   queryParam(utmQuery, "utm_medium"),
			UtmContent:  queryParam(utmQuery, "utm_content"),
			UtmTerm:     queryParam(utmQuery, "utm_term"),
		},
		Commission: models.UtmifyCommission{
			TotalPriceInCents:     totalCents,
			GatewayFeeInCents:     0,
			UserCommissionInCents: totalCents,
			Currency:              "BRL",
		},
	}

	if err := s.sessions.SaveOrderAnalytics(ctx, externalID, order); err != nil {
		s.logger.Warn("failed to stage analytics payload", zap.String("order_id", externalID), zap.Error(err))
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.analytics.SendOrder(sendCtx, *order); err != nil {
			s.logger.Warn("analytics forward failed", zap.String("order_id", externalID), zap.Error(err))
		}
	}()
}

// buildTracking lifts the allow-listed query parameters into the gateway
// tracking block. "src" falls back to "utm_source" when absent.
func buildTracking(utmQuery map[string]string) models.TrackingParams {
	get := func(key string) *string { return queryParam(utmQuery, key) }

	t := models.TrackingParams{
		Ref:         get("ref"),
		Src:         get("src"),
		Sck:         get("sck"),
		UtmSource:   get("utm_source"),
		UtmMedium:   get("utm_medium"),
		UtmCampaign: get("utm_campaign"),
		UtmID:       get("utm_id"),
		UtmTerm:     get("utm_term"),
		UtmContent:  get("utm_content"),
	}
	if t.Src == nil {
		t.Src = t.UtmSource
	}
	return t
}

func queryParam(q map[string]string, key string) *string {
	if q == nil {
		return nil
	}
	if v, ok := q[key]; ok && v != "" {
		return &v
	}
	return nil
}
