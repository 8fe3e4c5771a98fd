package redisstore

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-dolar-client/tokenstore"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ tokenstore.Store = (*RedisStore)(nil)

const defaultPrefix = "dolarito:session"

// RedisStore keeps each session field under <prefix>:<namespace>:<key>. Namespaces let
// several profiles share one Redis.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	namespace string
}

type Option func(*RedisStore)

func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func New(client redis.UniversalClient, namespace string, options ...Option) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultPrefix, namespace: namespace}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k tokenstore.Key) string {
	return s.prefix + ":" + s.namespace + ":" + string(k)
}

func (s *RedisStore) Get(ctx context.Context, key tokenstore.Key) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(err, "[redisstore] get")
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key tokenstore.Key, value string) error {
	return pkgerrors.Wrap(s.client.Set(ctx, s.key(key), value, 0).Err(), "[redisstore] set")
}

func (s *RedisStore) Remove(ctx context.Context, key tokenstore.Key) error {
	return pkgerrors.Wrap(s.client.Del(ctx, s.key(key)).Err(), "[redisstore] del")
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
