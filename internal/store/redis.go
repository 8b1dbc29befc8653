package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/pkg/api"
)

type (
	// RedisStore keeps the flow document in a single Redis string key
	RedisStore struct {
		client *redis.Client
		key    string
	}

	getter interface {
		Get(ctx context.Context, key string) *redis.StringCmd
	}
)

const maxTxRetries = 10

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store backed by the configured Redis server
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{
		client: client,
		key:    documentKey(cfg.Prefix),
	}
}

func (s *RedisStore) Get(ctx context.Context, id api.FlowID) (*api.Flow, error) {
	doc, err := s.load(ctx, s.client)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc.get(id)
}

func (s *RedisStore) List(ctx context.Context) ([]*api.Flow, error) {
	doc, err := s.load(ctx, s.client)
	if err != nil {
		return nil, err
	}
	return doc.AppFlows, nil
}

func (s *RedisStore) Put(ctx context.Context, flow *api.Flow) (bool, error) {
	if err := checkFlow(flow); err != nil {
		return false, err
	}
	var created bool
	err := s.update(ctx, func(doc *document) error {
		created = doc.put(flow)
		return nil
	}, true)
	return created, err
}

func (s *RedisStore) Delete(ctx context.Context, id api.FlowID) error {
	return s.update(ctx, func(doc *document) error {
		return doc.remove(id)
	}, false)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// update applies fn to the document under an optimistic WATCH, retrying when
// a concurrent writer changes the key first
func (s *RedisStore) update(
	ctx context.Context, fn func(*document) error, create bool,
) error {
	txf := func(tx *redis.Tx) error {
		doc, err := s.load(ctx, tx)
		switch {
		case errors.Is(err, ErrDocumentNotFound) && create:
			doc = &document{}
		case err != nil:
			return err
		}

		if err := fn(doc); err != nil {
			return err
		}

		data, err := encodeDocument(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrStoreBusy
}

func (s *RedisStore) load(ctx context.Context, cmd getter) (*document, error) {
	data, err := cmd.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

func documentKey(prefix string) string {
	if prefix == "" {
		return documentName
	}
	return prefix + ":" + documentName
}
