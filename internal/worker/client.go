package worker

import (
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// redisOptions accepts redis://, rediss:// (TLS) and bare host:port.
func redisOptions(redisURL string) (*redis.Options, error) {
	if !strings.HasPrefix(redisURL, "redis://") && !strings.HasPrefix(redisURL, "rediss://") {
		return &redis.Options{Addr: redisURL}, nil
	}
	return redis.ParseURL(redisURL)
}

// ParseRedisURL converts a Redis URL into asynq connection options, keeping
// the database index and TLS settings.
func ParseRedisURL(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redisOptions(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// NewRedisClient returns the go-redis client used for the lookup cache and
// progress pub/sub.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// NewClient returns the asynq client the API enqueues generation jobs with.
func NewClient(redisURL string) (*asynq.Client, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}
