package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/models"
)

// RedisSessionNotifier publishes session snapshots to both pairing members.
type RedisSessionNotifier struct {
	redis *redis.Client
}

func NewRedisSessionNotifier(client *redis.Client) *RedisSessionNotifier {
	return &RedisSessionNotifier{redis: client}
}

func (n *RedisSessionNotifier) SessionUpdated(ctx context.Context, s *models.StudySession) {
	data, err := json.Marshal(models.WSMessage{Type: models.WSSessionUpdate, Payload: s})
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID.String()).Msg("Failed to encode session update")
		return
	}
	for _, userID := range []uuid.UUID{s.MenteeID, s.MentorID} {
		if err := n.redis.Publish(ctx, models.UserChannel(userID), data).Err(); err != nil {
			log.Warn().Err(err).Str("session_id", s.ID.String()).Msg("Failed to publish session update")
		}
	}
}

// RedisRunClaimer claims runs with SET NX.
type RedisRunClaimer struct {
	redis *redis.Client
}

func NewRedisRunClaimer(client *redis.Client) *RedisRunClaimer {
	return &RedisRunClaimer{redis: client}
}

func (c *RedisRunClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
