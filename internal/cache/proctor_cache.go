package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proctorexam/internal/model"
)

// ProctorCache tracks the live violation log of an exam attempt
type ProctorCache interface {
	Start(ctx context.Context, examID, studentID string, ttl time.Duration) error
	Active(ctx context.Context, examID, studentID string) (bool, error)
	Append(ctx context.Context, examID, studentID string, v model.Violation) (bool, error)
	List(ctx context.Context, examID, studentID string) ([]model.Violation, error)
	Drain(ctx context.Context, examID, studentID string) ([]model.Violation, error)
}

type proctorCache struct {
	client *redis.Client
}

// NewProctorCache creates a new proctoring session cache
func NewProctorCache(client *redis.Client) ProctorCache {
	return &proctorCache{
		client: client,
	}
}

func (c *proctorCache) sessionKey(examID, studentID string) string {
	return fmt.Sprintf("exam:%s:proctor:%s", examID, studentID)
}

func (c *proctorCache) logKey(examID, studentID string) string {
	return fmt.Sprintf("exam:%s:proctor:%s:log", examID, studentID)
}

// Start opens a session; restarting keeps any log already recorded
func (c *proctorCache) Start(ctx context.Context, examID, studentID string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.sessionKey(examID, studentID), time.Now().Unix(), ttl)
	pipe.Expire(ctx, c.logKey(examID, studentID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *proctorCache) Active(ctx context.Context, examID, studentID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.sessionKey(examID, studentID)).Result()
	return n > 0, err
}

// appendScript pushes onto the log only while the session key exists and
// gives the log the session's remaining lifetime. Returns -1 without a session.
var appendScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then
	return -1
end
local n = redis.call('RPUSH', KEYS[2], ARGV[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return n
`)

// Append records a violation if the session is open and reports whether it did
func (c *proctorCache) Append(ctx context.Context, examID, studentID string, v model.Violation) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}

	keys := []string{c.sessionKey(examID, studentID), c.logKey(examID, studentID)}
	n, err := appendScript.Run(ctx, c.client, keys, data).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *proctorCache) List(ctx context.Context, examID, studentID string) ([]model.Violation, error) {
	items, err := c.client.LRange(ctx, c.logKey(examID, studentID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeViolations(items)
}

// Drain returns the log and closes the session so nothing more can be appended
func (c *proctorCache) Drain(ctx context.Context, examID, studentID string) ([]model.Violation, error) {
	key := c.logKey(examID, studentID)

	pipe := c.client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key, c.sessionKey(examID, studentID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return decodeViolations(lrange.Val())
}

func decodeViolations(items []string) ([]model.Violation, error) {
	out := make([]model.Violation, 0, len(items))
	for _, item := range items {
		var v model.Violation
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
