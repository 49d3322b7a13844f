package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

type ResultRepository interface {
	Save(ctx context.Context, result entity.MatchResult) error
	ListByRoom(ctx context.Context, roomCode string) ([]entity.MatchResult, error)
	Wins(ctx context.Context) (map[entity.Mark]int64, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func resultKey(roomCode string, n int64) string {
	return "result:" + roomCode + ":" + strconv.FormatInt(n, 10)
}

func resultSeqKey(roomCode string) string {
	return "result:" + roomCode + ":seq"
}

func winsKey(side entity.Mark) string {
	return "stats:wins:" + string(side)
}

// Save - stores one finished game of a room and bumps the winner's counter.
func (that *dbResult) Save(ctx context.Context, result entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	n, err := that.client.Incr(ctx, resultSeqKey(result.RoomCode)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate result number: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKey(result.RoomCode, n), resultJSON, 0)
		if result.Winner.IsPlayer() {
			pipe.Incr(ctx, winsKey(result.Winner))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// ListByRoom - returns the results of a room in the order they were saved.
func (that *dbResult) ListByRoom(ctx context.Context, roomCode string) ([]entity.MatchResult, error) {
	count, err := that.client.Get(ctx, resultSeqKey(roomCode)).Int64()
	if errors.Is(err, redis.Nil) {
		return []entity.MatchResult{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result count: %w", err)
	}

	keys := make([]string, 0, count)
	for n := int64(1); n <= count; n++ {
		keys = append(keys, resultKey(roomCode, n))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	results := make([]entity.MatchResult, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var result entity.MatchResult
		if err = json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Wins - returns the win counters of both sides, zero when nothing was recorded.
func (that *dbResult) Wins(ctx context.Context) (map[entity.Mark]int64, error) {
	sides := []entity.Mark{entity.PlayerX, entity.PlayerO}

	values, err := that.client.MGet(ctx, winsKey(sides[0]), winsKey(sides[1])).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get win counters: %w", err)
	}

	wins := make(map[entity.Mark]int64, len(sides))
	for i, side := range sides {
		wins[side] = 0

		raw, ok := values[i].(string)
		if !ok {
			continue
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse win counter of %s: %w", side, err)
		}
		wins[side] = n
	}

	return wins, nil
}
