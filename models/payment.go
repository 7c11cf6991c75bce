package models

import "time"

// Payment statuses as normalized from the gateway.
const (
	StatusPending  = "PENDING"
	StatusPaid     = "PAID"
	StatusApproved = "APPROVED"
	StatusExpired  = "EXPIRED"
	StatusUnknown  = "UNKNOWN"
	StatusError    = "ERROR"
)

// Expiry source for a payment session.
const (
	ExpirySourceServer   = "server"
	ExpirySourceFallback = "client-fallback"
)

// PaymentSession is the single durable payment record per storefront
// session. Creating a new one overwrites the previous slot.
type PaymentSession struct {
	ExternalID   string    `json:"external_id"`
	GatewayID    string    `json:"gateway_id,omitempty"`
	PixCode      string    `json:"pix_code"`
	QRImage      string    `json:"qr_image,omitempty"`
	Amount       float64   `json:"amount"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpirySource string    `json:"expiry_source"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackingParams is the fixed allow-list of attribution parameters
// forwarded to the payment gateway. Absent parameters are sent as null.
type TrackingParams struct {
	Ref         *string
	Src         *string
	Sck         *string
	UtmSource   *string
	UtmMedium   *string
	UtmCampaign *string
	UtmID       *string
	UtmTerm     *string
	UtmContent  *string
}

type PaymentItem struct {
	ID          string
	Name        string
	AmountCents int64
	Quantity    int
}

// PaymentRequest is the domain-level order-creation request handed to the
// payment gateway provider.
type PaymentRequest struct {
	ExternalID    string
	AmountCents   int64
	BuyerName     string
	BuyerEmail    string
	BuyerDocument string
	BuyerPhone    string
	BuyerIP       string
	Items         []PaymentItem
	Tracking      TrackingParams
}

// GatewayPayment is the gateway's view of a created transaction.
// ExpiresAt is the raw gateway value and may be empty.
type GatewayPayment struct {
	ID               string
	Status           string
	TotalAmountCents int64
	PixCode          string
	QRCodeBase64     string
	ExpiresAt        string
}
