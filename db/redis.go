package db

import (
	"net"
	"time"

	"github.com/go-redis/redis"
)

// Saved identifiers expire on their own; a job this old is long past
// terminal and the slot is stale.
var slotTTL = 24 * time.Hour

type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps the slot in redis, for deployments where the
// observing process moves between hosts.
type RedisStore struct {
	rc *redis.Client
}

func NewRedisStore(opt *Options) *RedisStore {
	if opt == nil {
		opt = &Options{}
	}
	if opt.Addr == "" {
		opt.Addr = "localhost:6379"
	}
	_, _, err := net.SplitHostPort(opt.Addr)
	if err != nil {
		opt.Addr = net.JoinHostPort(opt.Addr, "6379")
	}
	return &RedisStore{
		rc: redis.NewClient(&redis.Options{
			Addr:     opt.Addr,
			Password: opt.Password,
			DB:       opt.DB,
		}),
	}
}

func (s *RedisStore) Load() (string, error) {
	val, err := s.rc.Get(slotKey).Result()
	if err == redis.Nil {
		return "", ErrNoSavedJob
	} else if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Save(id string) error {
	return s.rc.Set(slotKey, id, slotTTL).Err()
}

func (s *RedisStore) Clear() error {
	return s.rc.Del(slotKey).Err()
}
