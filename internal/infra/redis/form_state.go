package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tnt-services-site/internal/domain"
	"tnt-services-site/internal/domain/model"
	"tnt-services-site/internal/domain/ports/repository"
	"tnt-services-site/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

var _ repository.FormStateRepository = (*FormStateRepo)(nil)

// FormStateRepo keeps lead form instances in Redis as JSON.
type FormStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewFormStateRepo(client RedisClient, ttl time.Duration) *FormStateRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FormStateRepo{client: client, ttl: ttl}
}

func (s *FormStateRepo) formKey(id string) string {
	return fmt.Sprintf("lead_form:%s", id)
}

func (s *FormStateRepo) Save(ctx context.Context, f *model.LeadForm) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.formKey(f.ID), data, s.ttl)
}

func (s *FormStateRepo) Get(ctx context.Context, id string) (*model.LeadForm, error) {
	data, err := s.client.Get(ctx, s.formKey(id))
	if errors.Is(err, redis.Nil) {
		metrics.IncFormStateLookup("redis", "miss")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		metrics.IncFormStateLookup("redis", "error")
		return nil, err
	}
	metrics.IncFormStateLookup("redis", "hit")

	var f model.LeadForm
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return nil, err
	}
	return &f, nil
}
