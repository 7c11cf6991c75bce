package services

import (
	"context"
	"errors"

	"storefront-service/models"
	"storefront-service/repository"

	"go.uber.org/zap"
)

// ErrQuantityLimit is returned when an add/increment would push the cart
// past the store-wide unit cap. The operation is a no-op: the cap rejects,
// it never clamps.
var ErrQuantityLimit = errors.New("cart quantity limit reached")

// ErrLineNotFound is returned by increment/decrement for an unknown line id.
var ErrLineNotFound = errors.New("cart line not found")

type CartService struct {
	repo        repository.CartRepository
	maxQuantity int
	logger      *zap.Logger
}

func NewCartService(repo repository.CartRepository, maxQuantity int, logger *zap.Logger) *CartService {
	return &CartService{
		repo:        repo,
		maxQuantity: maxQuantity,
		logger:      logger,
	}
}

// Get returns the cart for a session, or an empty cart when none exists.
func (s *CartService) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{SessionID: sessionID, Items: []models.CartLine{}}
	}
	return cart, nil
}

// AddItem merges the line into an existing one with the same id or appends
// it. Exceeding the unit cap fails with ErrQuantityLimit.
func (s *CartService) AddItem(ctx context.Context, sessionID string, line models.CartLine, qty int) (*models.Cart, error) {
	if qty <= 0 {
		qty = 1
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if cart.TotalQuantity()+qty > s.maxQuantity {
		return nil, ErrQuantityLimit
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ID == line.ID {
			cart.Items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		line.Quantity = qty
		cart.Items = append(cart.Items, line)
	}

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Increment raises a line's quantity by one, subject to the same cap.
func (s *CartService) Increment(ctx context.Context, sessionID, lineID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := findLine(cart, lineID)
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	if cart.TotalQuantity()+1 > s.maxQuantity {
		return nil, ErrQuantityLimit
	}

	cart.Items[idx].Quantity++
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Decrement lowers a line's quantity by one, floored at 1. Removing the
// line entirely is Remove's job.
func (s *CartService) Decrement(ctx context.Context, sessionID, lineID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := findLine(cart, lineID)
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	if cart.Items[idx].Quantity > 1 {
		cart.Items[idx].Quantity--
	}

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove deletes the line unconditionally.
func (s *CartService) Remove(ctx context.Context, sessionID, lineID string) (*models.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ID != lineID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func findLine(cart *models.Cart, lineID string) int {
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}
