package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for per-exam rankings
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, examID, studentID string, score float64) error
	GetTop(ctx context.Context, examID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, examID, studentID string) (int64, error)
	Delete(ctx context.Context, examID string) error
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	StudentID string  `json:"studentId"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score"`
	Rank      int     `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(examID string) string {
	return fmt.Sprintf("exam:%s:lb", examID)
}

// UpdateScore records a score; a lower score never replaces a higher one
func (c *leaderboardCache) UpdateScore(ctx context.Context, examID, studentID string, score float64) error {
	return c.client.ZAddGT(ctx, c.key(examID), redis.Z{
		Score:  score,
		Member: studentID,
	}).Err()
}

// GetTop returns the best scores first; limit <= 0 returns everyone
func (c *leaderboardCache) GetTop(ctx context.Context, examID string, limit int) ([]LeaderboardEntry, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(examID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = LeaderboardEntry{
			StudentID: member,
			Score:     z.Score,
			Rank:      i + 1,
		}
	}
	return entries, nil
}

// GetRank is 1-indexed, -1 when the student has no score
func (c *leaderboardCache) GetRank(ctx context.Context, examID, studentID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(examID), studentID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return rank + 1, nil
}

func (c *leaderboardCache) Delete(ctx context.Context, examID string) error {
	return c.client.Del(ctx, c.key(examID)).Err()
}
