package models

type UtmifyCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Country  string `json:"country"`
	IP       string `json:"ip"`
}

type UtmifyProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PlanID       *string `json:"planId"`
	PlanName     *string `json:"planName"`
	Quantity     int     `json:"quantity"`
	PriceInCents int64   `json:"priceInCents"`
}

type UtmifyTracking struct {
	Src         *string `json:"src"`
	Sck         *string `json:"sck"`
	UtmSource   *string `json:"utm_source"`
	UtmCampaign *string `json:"utm_campaign"`
	UtmMedium   *string `json:"utm_medium"`
	UtmContent  *string `json:"utm_content"`
	UtmTerm     *string `json:"utm_term"`
}

type UtmifyCommission struct {
	TotalPriceInCents     int64  `json:"totalPriceInCents"`
	GatewayFeeInCents     int64  `json:"gatewayFeeInCents"`
	UserCommissionInCents int64  `json:"userCommissionInCents"`
	Currency              string `json:"currency"`
}

// UtmifyOrder is the order-tracking payload forwarded to the analytics
// collaborator. Date fields use "YYYY-MM-DD HH:MM:SS" in UTC.
type UtmifyOrder struct {
	OrderID            string           `json:"orderId"`
	Platform           string           `json:"platform"`
	PaymentMethod      string           `json:"paymentMethod"`
	Status             string           `json:"status"`
	CreatedAt          string           `json:"createdAt"`
	ApprovedDate       *string          `json:"approvedDate"`
	RefundedAt         *string          `json:"refundedAt"`
	Customer           UtmifyCustomer   `json:"customer"`
	Products           []UtmifyProduct  `json:"products"`
	TrackingParameters UtmifyTracking   `json:"trackingParameters"`
	Commission         UtmifyCommission `json:"commission"`
	IsTest             bool             `json:"isTest"`
}
