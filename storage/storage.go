package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gomodule/redigo/redis"
)

const (
	BucketStandalone = "standalone"
	BucketMock       = "mock"
	BucketBadger     = "badger"

	redisScheme = "redis://"
)

// Storage is the interface combining all storage interfaces.
type Storage interface {
	ReadWriter
	Remover
	List
}

// ReadWriter interface combines the Reader and Writer interface.
type ReadWriter interface {
	Reader
	Writer
}

// Reader interface is for retrieving items from the store.
type Reader interface {
	Read(context.Context, string) ([]byte, error)
}

// Writer interface is for adding or updating an item to the store.
type Writer interface {
	Write(context.Context, string, []byte, *Options) error
}

// Remover interface is for removing an item from storage.
type Remover interface {
	Remove(context.Context, string) error
}

// List interface is for returning a list of items in the store from the given key.
type List interface {
	List(context.Context, string) ([]string, error)
}

// CreateStorage builds an appropriate Storage from the config. The bucket selects the backend:
//   - "standalone" is the local filesystem under Root.
//   - "mock" is in memory.
//   - "badger" is an embedded badger database under Root.
//   - "redis://host:port" is a redis server.
//   - anything else is an AWS S3 bucket.
func CreateStorage(config Config) (Storage, error) {
	if len(config.Bucket) == 0 {
		return nil, errors.New("Bucket value required")
	}

	bucket := strings.ToLower(config.Bucket)
	switch {
	case bucket == BucketStandalone:
		return NewFilesystemStorage(config), nil
	case bucket == BucketMock:
		return NewMockStorage(), nil
	case bucket == BucketBadger:
		store, err := NewBadgerStorage(config)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(bucket, redisScheme):
		conn, err := redis.DialURL(config.Bucket)
		if err != nil {
			return nil, fmt.Errorf("Failed to connect to redis : %s", err)
		}
		return NewRedisStorage(conn), nil
	default:
		return NewS3Storage(config), nil
	}
}

// Close releases the resources of storage backends that hold them.
func Close(store Storage) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
