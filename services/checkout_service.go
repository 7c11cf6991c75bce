package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-service/models"
	"storefront-service/providers"
	"storefront-service/repository"
	"storefront-service/utils"

	"go.uber.org/zap"
)

// IdentificationInput is the payload of checkout step 1.
type IdentificationInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
}

// DeliveryInput is the payload of checkout step 2. CEP-derived fields may
// be edited by the buyer after the lookup prefills them.
type DeliveryInput struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	UF           string `json:"uf"`
	Recipient    string `json:"recipient"`
}

// CheckoutService drives the three-step checkout: identification,
// delivery, confirmation. Validation errors are aggregated per field so
// the buyer sees everything wrong at once.
type CheckoutService struct {
	drafts                repository.DraftRepository
	carts                 repository.CartRepository
	cep                   providers.CEPLookup
	freeShippingThreshold float64
	shippingFee           float64
	logger                *zap.Logger
}

func NewCheckoutService(
	drafts repository.DraftRepository,
	carts repository.CartRepository,
	cep providers.CEPLookup,
	freeShippingThreshold float64,
	shippingFee float64,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		drafts:                drafts,
		carts:                 carts,
		cep:                   cep,
		freeShippingThreshold: freeShippingThreshold,
		shippingFee:           shippingFee,
		logger:                logger,
	}
}

// Draft returns the checkout draft for the session, or a fresh step-1
// draft when none exists.
func (s *CheckoutService) Draft(ctx context.Context, sessionID string) (*models.OrderDraft, *ServiceError) {
	draft, err := s.drafts.LoadDraft(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load checkout draft", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to load checkout state"}
	}
	if draft == nil {
		draft = &models.OrderDraft{SessionID: sessionID, Step: 1}
	}
	return draft, nil
}

// SubmitIdentification validates step 1 and advances the draft to step 2.
// Field errors come back keyed by field name; the draft is untouched when
// any field fails.
func (s *CheckoutService) SubmitIdentification(ctx context.Context, sessionID string, in IdentificationInput) (map[string]string, *ServiceError) {
	fieldErrs := map[string]string{}

	name := strings.TrimSpace(in.FullName)
	if name == "" {
		fieldErrs["full_name"] = "full name is required"
	}
	if !utils.IsValidEmail(strings.TrimSpace(in.Email)) {
		fieldErrs["email"] = "enter a valid email address"
	}
	if !utils.IsValidCPF(in.CPF) {
		fieldErrs["cpf"] = "enter a valid CPF"
	}
	if len(utils.OnlyDigits(in.Phone)) < 10 {
		fieldErrs["phone"] = "enter a valid phone number with area code"
	}

	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	draft, svcErr := s.Draft(ctx, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}

	draft.Customer = models.Customer{
		Name:  name,
		Email: strings.TrimSpace(in.Email),
		CPF:   utils.OnlyDigits(in.CPF),
		Phone: utils.OnlyDigits(in.Phone),
	}
	if draft.Step < 2 {
		draft.Step = 2
	}

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		s.logger.Error("failed to save checkout draft", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to save checkout state"}
	}
	return nil, nil
}

// LookupCEP resolves the postal code and prefills the draft address. On
// a miss or a lookup failure the address form stays locked so the buyer
// cannot submit delivery against an unresolved code.
func (s *CheckoutService) LookupCEP(ctx context.Context, sessionID, cep string) (*models.Address, map[string]string, *ServiceError) {
	digits := utils.OnlyDigits(cep)
	if len(digits) != 8 {
		return nil, map[string]string{"cep": "CEP must have 8 digits"}, nil
	}

	draft, svcErr := s.Draft(ctx, sessionID)
	if svcErr != nil {
		return nil, nil, svcErr
	}

	addr, err := s.cep.Lookup(ctx, digits)
	if err != nil {
		draft.AddressUnlocked = false
		if saveErr := s.drafts.SaveDraft(ctx, draft); saveErr != nil {
			s.logger.Error("failed to save checkout draft", zap.Error(saveErr))
		}

		if errors.Is(err, providers.ErrCEPNotFound) {
			return nil, map[string]string{"cep": "CEP not found"}, nil
		}
		s.logger.Warn("cep lookup failed", zap.String("cep", digits), zap.Error(err))
		return nil, map[string]string{"cep": "could not look up CEP, try again"}, nil
	}

	draft.Address = models.Address{
		CEP:          addr.CEP,
		UF:           addr.UF,
		City:         addr.City,
		Street:       addr.Street,
		Neighborhood: addr.Neighborhood,
	}
	draft.AddressUnlocked = true

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		s.logger.Error("failed to save checkout draft", zap.Error(err))
		return nil, nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to save checkout state"}
	}
	return addr, nil, nil
}

// SubmitDelivery validates step 2 and advances the draft to step 3. It
// requires a prior successful CEP lookup for this session.
func (s *CheckoutService) SubmitDelivery(ctx context.Context, sessionID string, in DeliveryInput) (map[string]string, *ServiceError) {
	draft, svcErr := s.Draft(ctx, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}

	if draft.Step < 2 {
		return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "complete identification first"}
	}
	if !draft.AddressUnlocked {
		return map[string]string{"cep": "look up a valid CEP first"}, nil
	}

	fieldErrs := map[string]string{}
	if strings.TrimSpace(in.Street) == "" {
		fieldErrs["street"] = "street is required"
	}
	if strings.TrimSpace(in.Number) == "" {
		fieldErrs["number"] = "number is required"
	}
	if strings.TrimSpace(in.Neighborhood) == "" {
		fieldErrs["neighborhood"] = "neighborhood is required"
	}
	if strings.TrimSpace(in.Recipient) == "" {
		fieldErrs["recipient"] = "recipient is required"
	}
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}

	draft.Address.Street = strings.TrimSpace(in.Street)
	draft.Address.Number = strings.TrimSpace(in.Number)
	draft.Address.Complement = strings.TrimSpace(in.Complement)
	draft.Address.Neighborhood = strings.TrimSpace(in.Neighborhood)
	draft.Address.Recipient = strings.TrimSpace(in.Recipient)
	if city := strings.TrimSpace(in.City); city != "" {
		draft.Address.City = city
	}
	if uf := strings.TrimSpace(in.UF); uf != "" {
		draft.Address.UF = strings.ToUpper(uf)
	}
	draft.ShippingMethod = "priority"
	if draft.Step < 3 {
		draft.Step = 3
	}

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		s.logger.Error("failed to save checkout draft", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to save checkout state"}
	}
	return nil, nil
}

// ShippingFee returns the flat fee, waived above the free-shipping
// threshold.
func (s *CheckoutService) ShippingFee(subtotal float64) float64 {
	if subtotal >= s.freeShippingThreshold {
		return 0
	}
	return s.shippingFee
}

// Confirm freezes the draft totals for payment. The cart must be
// non-empty and both prior steps completed.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string) (*models.OrderDraft, *models.Cart, *ServiceError) {
	draft, svcErr := s.Draft(ctx, sessionID)
	if svcErr != nil {
		return nil, nil, svcErr
	}
	if draft.Step < 3 {
		return nil, nil, &ServiceError{StatusCode: http.StatusConflict, Message: "complete identification and delivery first"}
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load cart", zap.Error(err))
		return nil, nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to load cart"}
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "cart is empty"}
	}

	draft.Subtotal = cart.Subtotal()
	draft.ShippingPrice = s.ShippingFee(draft.Subtotal)
	draft.Total = draft.Subtotal + draft.ShippingPrice

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		s.logger.Error("failed to save checkout draft", zap.Error(err))
		return nil, nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to save checkout state"}
	}
	return draft, cart, nil
}

// Reset drops the checkout draft for the session.
func (s *CheckoutService) Reset(ctx context.Context, sessionID string) *ServiceError {
	if err := s.drafts.DeleteDraft(ctx, sessionID); err != nil {
		s.logger.Error("failed to delete checkout draft", zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to reset checkout"}
	}
	return nil
}
