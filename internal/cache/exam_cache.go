package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proctorexam/internal/model"
)

// ExamCache keeps exam definitions close to the submission path
type ExamCache interface {
	Set(ctx context.Context, exam *model.Exam) error
	Get(ctx context.Context, id string) (*model.Exam, error)
	Delete(ctx context.Context, id string) error
}

type examCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExamCache creates a new exam cache
func NewExamCache(client *redis.Client, ttl time.Duration) ExamCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &examCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *examCache) key(id string) string {
	return fmt.Sprintf("exam:%s", id)
}

func (c *examCache) Set(ctx context.Context, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(exam.ID), data, c.ttl).Err()
}

// Get returns nil on a miss
func (c *examCache) Get(ctx context.Context, id string) (*model.Exam, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (c *examCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
