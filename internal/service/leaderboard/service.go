package leaderboard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "gemrush:leaderboard"

// Service keeps the all-time score table in a Redis sorted set, keyed
// by display name. It satisfies game.Leaderboard.
type Service struct {
	client *redis.Client
}

func NewService(client *redis.Client) *Service {
	return &Service{client: client}
}

// Entry is one row of the public leaderboard.
type Entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// AddScore credits a finished round's points to the player's all-time
// total.
func (s *Service) AddScore(playerName string, points int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.ZIncrBy(ctx, leaderboardKey, float64(points), playerName).Err()
}

// Top returns the highest all-time totals, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		name, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: name, Score: int(z.Score)})
	}
	return entries, nil
}
