package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/theovalguide/review-service/internal/domain"
	apperrors "github.com/theovalguide/review-service/pkg/errors"
)

const (
	professorKeyPrefix = "professor:"
	classKeyPrefix     = "class:"
)

// ProfileCache caches resolved professor and class profiles in Redis. Keys
// use the lowercased slug and the normalized class code, so every accepted
// spelling of a reference hits the same entry.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache creates a new Redis-backed profile cache.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		ttl:    ttl,
	}
}

func professorKey(slug string) string {
	return professorKeyPrefix + strings.ToLower(strings.TrimSpace(slug))
}

func classKey(code string) string {
	return classKeyPrefix + domain.NormalizeCode(code)
}

// GetProfessor retrieves a cached professor by slug.
func (c *ProfileCache) GetProfessor(ctx context.Context, slug string) (*domain.Professor, error) {
	data, err := c.client.Get(ctx, professorKey(slug)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("professor", slug)
		}
		return nil, fmt.Errorf("redis get professor: %w", err)
	}

	var p domain.Professor
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal professor: %w", err)
	}

	return &p, nil
}

// SetProfessor caches a professor with the configured TTL.
func (c *ProfileCache) SetProfessor(ctx context.Context, p *domain.Professor) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal professor: %w", err)
	}

	if err := c.client.Set(ctx, professorKey(p.Slug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set professor: %w", err)
	}

	return nil
}

// InvalidateProfessor drops the cached entry for a slug.
func (c *ProfileCache) InvalidateProfessor(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, professorKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis del professor: %w", err)
	}

	return nil
}

// GetClass retrieves a cached class by code. Loosely-equivalent codes share
// one entry.
func (c *ProfileCache) GetClass(ctx context.Context, code string) (*domain.CourseClass, error) {
	data, err := c.client.Get(ctx, classKey(code)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("class", code)
		}
		return nil, fmt.Errorf("redis get class: %w", err)
	}

	var cc domain.CourseClass
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("unmarshal class: %w", err)
	}

	return &cc, nil
}

// SetClass caches a class with the configured TTL.
func (c *ProfileCache) SetClass(ctx context.Context, cc *domain.CourseClass) error {
	data, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("marshal class: %w", err)
	}

	if err := c.client.Set(ctx, classKey(cc.Code), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set class: %w", err)
	}

	return nil
}

// InvalidateClass drops the cached entry for a code.
func (c *ProfileCache) InvalidateClass(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, classKey(code)).Err(); err != nil {
		return fmt.Errorf("redis del class: %w", err)
	}

	return nil
}
