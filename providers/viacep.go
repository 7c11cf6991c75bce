package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-service/models"
	"storefront-service/utils"
)

// ErrCEPNotFound is returned when the postal code does not exist.
var ErrCEPNotFound = errors.New("postal code not found")

// ViaCEPClient resolves Brazilian postal codes via the ViaCEP API.
type ViaCEPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewViaCEPClient(baseURL string) *ViaCEPClient {
	return &ViaCEPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

// Lookup fetches the address for an 8-digit postal code.
func (v *ViaCEPClient) Lookup(ctx context.Context, cep string) (*models.Address, error) {
	digits := utils.OnlyDigits(cep)
	if len(digits) != 8 {
		return nil, fmt.Errorf("cep must be 8 digits, got %q", cep)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/ws/"+digits+"/json/", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("viacep API error (status %d)", resp.StatusCode)
	}

	var out viaCEPResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.Erro {
		return nil, ErrCEPNotFound
	}

	return &models.Address{
		CEP:          utils.FormatCEP(digits),
		Street:       out.Logradouro,
		Neighborhood: out.Bairro,
		City:         out.Localidade,
		UF:           out.UF,
	}, nil
}
