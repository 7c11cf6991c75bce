package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/models"

	"github.com/redis/go-redis/v9"
)

type DraftRepository interface {
	LoadDraft(ctx context.Context, sessionID string) (*models.OrderDraft, error)
	SaveDraft(ctx context.Context, draft *models.OrderDraft) error
	DeleteDraft(ctx context.Context, sessionID string) error
}

type redisDraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftRepository(client *redis.Client, ttl time.Duration) DraftRepository {
	return &redisDraftRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *redisDraftRepository) getKey(sessionID string) string {
	return fmt.Sprintf("checkout:draft:%s", sessionID)
}

// LoadDraft returns nil, nil when no draft exists for the session.
func (r *redisDraftRepository) LoadDraft(ctx context.Context, sessionID string) (*models.OrderDraft, error) {
	data, err := r.client.Get(ctx, r.getKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var draft models.OrderDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *redisDraftRepository) SaveDraft(ctx context.Context, draft *models.OrderDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(draft.SessionID), data, r.ttl).Err()
}

func (r *redisDraftRepository) DeleteDraft(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getKey(sessionID)).Err()
}
