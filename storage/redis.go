package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gomodule/redigo/redis"
)

// RedisStorage implements a Storage backed by Redis.
type RedisStorage struct {
	Conn redis.Conn

	lock sync.Mutex
}

// NewRedisStorage return a new RedisStorage.
func NewRedisStorage(conn redis.Conn) *RedisStorage {
	return &RedisStorage{
		Conn: conn,
	}
}

// Reader implemented the Reader interface.
func (r *RedisStorage) Read(ctx context.Context, key string) ([]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	resp, err := r.Conn.Do("GET", key)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, ErrNotFound
	}

	b, ok := resp.([]byte)
	if !ok {
		return nil, ErrUnknownPayload
	}

	return b, nil
}

// Write implements the Writer interface. A positive TTL in the options expires the key after that
// many seconds.
func (r *RedisStorage) Write(ctx context.Context, key string, b []byte, opts *Options) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	args := redis.Args{}.Add(key).Add(b)
	if opts != nil && opts.TTL > 0 {
		args = args.Add("EX").Add(opts.TTL)
	}

	if _, err := r.Conn.Do("SET", args...); err != nil {
		return err
	}

	return r.Conn.Flush()
}

// Remove implements the Remover interface.
func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	count, err := redis.Int(r.Conn.Do("DEL", key))
	if err != nil {
		return err
	}

	if count == 0 {
		return ErrNotFound
	}

	return r.Conn.Flush()
}

// List implements the List interface.
func (r *RedisStorage) List(ctx context.Context, key string) ([]string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := fmt.Sprintf("%s*", key)

	keys, err := redis.Strings(r.Conn.Do("KEYS", k))
	if err != nil {
		if err == redis.ErrNil {
			return nil, nil
		}
		return nil, ErrUnknownPayload
	}

	// sort the keys
	sort.Strings(keys)

	return keys, nil
}

// Close closes the connection to the server.
func (r *RedisStorage) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.Conn.Close()
}
