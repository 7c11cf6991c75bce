package models

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

type Address struct {
	CEP          string `json:"cep"`
	UF           string `json:"uf"`
	City         string `json:"city"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement,omitempty"`
	Recipient    string `json:"recipient"`
}

// OrderDraft is built incrementally across the checkout steps and frozen
// with totals at confirmation time.
type OrderDraft struct {
	SessionID       string   `json:"session_id"`
	Step            int      `json:"step"`
	Customer        Customer `json:"customer"`
	Address         Address  `json:"address"`
	AddressUnlocked bool     `json:"address_unlocked"`
	ShippingMethod  string   `json:"shipping_method,omitempty"`
	ShippingPrice   float64  `json:"shipping_price"`
	Subtotal        float64  `json:"subtotal"`
	Total           float64  `json:"total"`
}
