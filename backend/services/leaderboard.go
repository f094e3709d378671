package services

import (
	"context"
	"strconv"
	"time"
	"tutorium/backend/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardKey = "leaderboard:points"

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Leaderboard keeps a redis sorted set of user points. Redis is optional:
// with a nil client every read falls through to SQL.
type Leaderboard struct {
	DB    *gorm.DB
	Redis *redis.Client
	Log   *zap.Logger
}

func NewLeaderboard(db *gorm.DB, client *redis.Client, log *zap.Logger) *Leaderboard {
	return &Leaderboard{DB: db, Redis: client, Log: log.With(zap.String("service", "leaderboard"))}
}

// SetScore mirrors the user's point total into the sorted set. Failures are
// logged and ignored; SQL remains the source of truth.
func (l *Leaderboard) SetScore(userID uint, points int) {
	if l.Redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := l.Redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(points),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
	if err != nil {
		l.Log.Warn("leaderboard cache update failed", zap.Error(err))
	}
}

// Top returns the highest-scoring users. The redis path resolves names from
// the database; any cache failure falls back to a plain SQL ordering.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if l.Redis != nil {
		entries, err := l.topFromRedis(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			l.Log.Warn("leaderboard cache read failed, falling back to sql", zap.Error(err))
		}
	}

	return l.topFromSQL(limit)
}

func (l *Leaderboard) topFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	members, err := l.Redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		id, err := strconv.ParseUint(member.Member.(string), 10, 64)
		if err != nil {
			continue
		}

		var user models.User
		if err := l.DB.Select("id", "name").First(&user, uint(id)).Error; err != nil {
			continue
		}

		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			UserID: user.ID,
			Name:   user.Name,
			Points: int(member.Score),
		})
	}
	return entries, nil
}

func (l *Leaderboard) topFromSQL(limit int) ([]LeaderboardEntry, error) {
	var users []models.User
	err := l.DB.Order("points DESC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			UserID: user.ID,
			Name:   user.Name,
			Points: user.Points,
		})
	}
	return entries, nil
}
