package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ReviewFeed distributes freshly enqueued review entries to reviewers.
// Durable truth lives in pdf_review_queue; the feed is a convenience layer
// and its failures never affect job state.
type ReviewFeed interface {
	Push(ctx context.Context, entryIDs []int64) error
	Next(ctx context.Context) (int64, error)
}

var ErrFeedEmpty = errors.New("review feed empty")

// redisReviewFeed keeps pending review entry ids on a Redis list.
// Push: LPUSH feed key. Next: RPOP oldest id (FIFO).
type redisReviewFeed struct {
	rdb *redis.Client
	key string
}

func NewRedisReviewFeed(rdb *redis.Client, key string) ReviewFeed {
	return &redisReviewFeed{rdb: rdb, key: key}
}

func (f *redisReviewFeed) Push(ctx context.Context, entryIDs []int64) error {
	if len(entryIDs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(entryIDs))
	for _, id := range entryIDs {
		vals = append(vals, strconv.FormatInt(id, 10))
	}
	return f.rdb.LPush(ctx, f.key, vals...).Err()
}

func (f *redisReviewFeed) Next(ctx context.Context) (int64, error) {
	raw, err := f.rdb.RPop(ctx, f.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrFeedEmpty
		}
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return id, nil
}
