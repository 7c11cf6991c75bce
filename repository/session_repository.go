package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront-service/models"

	"github.com/redis/go-redis/v9"
)

// SessionRepository holds the single payment-session slot per storefront
// session, plus two per-order records: the synthesized expiry timestamp
// (so a reload does not reset the countdown) and the pending analytics
// payload (resent with status "paid" on confirmation).
//
// The slot is one fixed key per session id: starting a second checkout
// before the first is cleared overwrites it, last write wins.
type SessionRepository interface {
	SaveSession(ctx context.Context, sessionID string, session *models.PaymentSession) error
	LoadSession(ctx context.Context, sessionID string) (*models.PaymentSession, error)
	ClearSession(ctx context.Context, sessionID string) error

	SaveOrderExpiry(ctx context.Context, orderID string, expiresAt time.Time) error
	GetOrderExpiry(ctx context.Context, orderID string) (time.Time, bool, error)
	DeleteOrderExpiry(ctx context.Context, orderID string) error

	SaveOrderAnalytics(ctx context.Context, orderID string, order *models.UtmifyOrder) error
	LoadOrderAnalytics(ctx context.Context, orderID string) (*models.UtmifyOrder, error)
	DeleteOrderAnalytics(ctx context.Context, orderID string) error
}

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *redisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("payment:session:%s", sessionID)
}

func (r *redisSessionRepository) expiryKey(orderID string) string {
	return fmt.Sprintf("payment:expiry:%s", orderID)
}

func (r *redisSessionRepository) analyticsKey(orderID string) string {
	return fmt.Sprintf("payment:analytics:%s", orderID)
}

func (r *redisSessionRepository) SaveSession(ctx context.Context, sessionID string, session *models.PaymentSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.sessionKey(sessionID), data, r.ttl).Err()
}

// LoadSession returns nil, nil when the slot is empty. A corrupt payload is
// treated the same way: the caller must never see a broken session.
func (r *redisSessionRepository) LoadSession(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.PaymentSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, nil
	}
	return &session, nil
}

func (r *redisSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.sessionKey(sessionID)).Err()
}

func (r *redisSessionRepository) SaveOrderExpiry(ctx context.Context, orderID string, expiresAt time.Time) error {
	val := strconv.FormatInt(expiresAt.UnixMilli(), 10)
	return r.client.Set(ctx, r.expiryKey(orderID), val, r.ttl).Err()
}

func (r *redisSessionRepository) GetOrderExpiry(ctx context.Context, orderID string) (time.Time, bool, error) {
	data, err := r.client.Get(ctx, r.expiryKey(orderID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (r *redisSessionRepository) DeleteOrderExpiry(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, r.expiryKey(orderID)).Err()
}

func (r *redisSessionRepository) SaveOrderAnalytics(ctx context.Context, orderID string, order *models.UtmifyOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.analyticsKey(orderID), data, r.ttl).Err()
}

func (r *redisSessionRepository) LoadOrderAnalytics(ctx context.Context, orderID string) (*models.UtmifyOrder, error) {
	data, err := r.client.Get(ctx, r.analyticsKey(orderID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var order models.UtmifyOrder
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, nil
	}
	return &order, nil
}

func (r *redisSessionRepository) DeleteOrderAnalytics(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, r.analyticsKey(orderID)).Err()
}
