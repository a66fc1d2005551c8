// Package db persists the single in-flight job identifier so a new
// process can pick up observation of a job submitted by an old one.
// The slot holds at most one identifier: submitting overwrites it,
// reset and terminal completion clear it, and it is read once at
// start-up.
package db

import (
	"errors"

	"github.com/videotoaudio/extract-client/config"
)

// ErrNoSavedJob is returned when the slot is empty.
var ErrNoSavedJob = errors.New("no saved job")

// slotKey is the fixed key the identifier lives under.
const slotKey = "extract:current-job"

// Store is a durable single-slot store for the in-flight job id.
type Store interface {
	Load() (string, error)
	Save(id string) error
	Clear() error
}

// Open picks the slot store for cfg: redis when an address is
// configured, otherwise the single-record file.
func Open(cfg *config.Config) (Store, error) {
	if cfg.RedisAddr != "" {
		return NewRedisStore(&Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	}
	return NewFileStore(cfg.StateFile)
}
