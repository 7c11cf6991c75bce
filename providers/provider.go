package providers

import (
	"context"
	"fmt"

	"storefront-service/models"
)

// PaymentGateway is the payment-processor boundary.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req models.PaymentRequest) (*models.GatewayPayment, error)
	TransactionStatus(ctx context.Context, externalID string) (string, error)
}

// CEPLookup resolves a postal code into a partial address.
type CEPLookup interface {
	Lookup(ctx context.Context, cep string) (*models.Address, error)
}

// AnalyticsForwarder receives order-tracking events, best effort.
type AnalyticsForwarder interface {
	Enabled() bool
	SendOrder(ctx context.Context, order models.UtmifyOrder) error
}

// GatewayError carries the processor's HTTP status and message so callers
// can forward them upward unchanged.
type GatewayError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error (status %d): %s", e.StatusCode, e.Message)
}
