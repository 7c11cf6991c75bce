package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-service/models"
)

// BuckPayClient talks to the BuckPay PIX gateway.
type BuckPayClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewBuckPayClient(baseURL, apiToken string) *BuckPayClient {
	return &BuckPayClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ---- BuckPay API request/response structs ----

type buckpayBuyer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	IP       string `json:"ip"`
}

type buckpayItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Quantity int    `json:"quantity"`
}

type buckpayTracking struct {
	Ref         *string `json:"ref"`
	Src         *string `json:"src"`
	Sck         *string `json:"sck"`
	UtmSource   *string `json:"utm_source"`
	UtmMedium   *string `json:"utm_medium"`
	UtmCampaign *string `json:"utm_campaign"`
	UtmID       *string `json:"utm_id"`
	UtmTerm     *string `json:"utm_term"`
	UtmContent  *string `json:"utm_content"`
}

type buckpayTransactionRequest struct {
	ExternalID    string          `json:"external_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        int64           `json:"amount"`
	Buyer         buckpayBuyer    `json:"buyer"`
	Items         []buckpayItem   `json:"items"`
	Tracking      buckpayTracking `json:"tracking"`
}

type buckpayPix struct {
	Code         string `json:"code"`
	QRCodeBase64 string `json:"qrcode_base64"`
	ExpiresAt    string `json:"expires_at"`
}

type buckpayTransactionData struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	TotalAmount int64      `json:"total_amount"`
	Pix         buckpayPix `json:"pix"`
}

type buckpayResponse struct {
	Data buckpayTransactionData `json:"data"`
}

type buckpayErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

// ---- PaymentGateway implementation ----

// CreateTransaction creates a PIX transaction for the given order.
func (b *BuckPayClient) CreateTransaction(ctx context.Context, req models.PaymentRequest) (*models.GatewayPayment, error) {
	items := make([]buckpayItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, buckpayItem{
			ID:       it.ID,
			Name:     it.Name,
			Amount:   it.AmountCents,
			Quantity: it.Quantity,
		})
	}

	wire := buckpayTransactionRequest{
		ExternalID:    req.ExternalID,
		PaymentMethod: "pix",
		Amount:        req.AmountCents,
		Buyer: buckpayBuyer{
			Name:     req.BuyerName,
			Email:    req.BuyerEmail,
			Document: req.BuyerDocument,
			Phone:    req.BuyerPhone,
			IP:       req.BuyerIP,
		},
		Items: items,
		Tracking: buckpayTracking{
			Ref:         req.Tracking.Ref,
			Src:         req.Tracking.Src,
			Sck:         req.Tracking.Sck,
			UtmSource:   req.Tracking.UtmSource,
			UtmMedium:   req.Tracking.UtmMedium,
			UtmCampaign: req.Tracking.UtmCampaign,
			UtmID:       req.Tracking.UtmID,
			UtmTerm:     req.Tracking.UtmTerm,
			UtmContent:  req.Tracking.UtmContent,
		},
	}

	var resp buckpayResponse
	if err := b.doRequest(ctx, http.MethodPost, "/transactions", wire, &resp); err != nil {
		return nil, err
	}

	d := resp.Data
	return &models.GatewayPayment{
		ID:               d.ID,
		Status:           d.Status,
		TotalAmountCents: d.TotalAmount,
		PixCode:          d.Pix.Code,
		QRCodeBase64:     d.Pix.QRCodeBase64,
		ExpiresAt:        d.Pix.ExpiresAt,
	}, nil
}

// TransactionStatus queries the transaction by external id. A 404 means
// the gateway has not indexed the order yet and is reported as PENDING.
func (b *BuckPayClient) TransactionStatus(ctx context.Context, externalID string) (string, error) {
	path := "/transactions/external_id/" + url.PathEscape(externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return models.StatusPending, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newGatewayError(resp.StatusCode, respBytes, "failed to query transaction status")
	}

	var out buckpayResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	status := strings.ToUpper(out.Data.Status)
	if status == "" {
		status = models.StatusUnknown
	}
	return status, nil
}

// ---- HTTP helpers ----

func (b *BuckPayClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiToken)
	req.Header.Set("User-Agent", "Buckpay API")
}

func (b *BuckPayClient) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newGatewayError(resp.StatusCode, respBytes, "payment gateway request failed")
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func newGatewayError(statusCode int, body []byte, fallback string) *GatewayError {
	var apiErr buckpayErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = fallback
	}
	return &GatewayError{
		StatusCode: statusCode,
		Message:    msg,
		Detail:     apiErr.Error.Detail,
	}
}
