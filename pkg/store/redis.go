package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cutgraph/pkg/document"
	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/observability"
)

const redisBackend = "redis"

const (
	connectAttempts = 3
	connectDelay    = 500 * time.Millisecond
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // defaults to "cutgraph:doc:"
}

// RedisStore keeps each document as a JSON string under KeyPrefix+id.
// The modification time is kept in a sorted set next to the documents.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING,
// retrying a few times while the server comes up.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := retryWithBackoff(ctx, connectAttempts, connectDelay, func() error {
		return retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, errs.Wrap(errs.ErrCodeStore, err, "connect to redis at %s", cfg.Addr)
	}
	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns the
// client and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cutgraph:doc:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// index is the sorted set of document ids scored by modification time.
func (s *RedisStore) index() string { return s.prefix + "_index" }

func (s *RedisStore) Get(ctx context.Context, id string) (doc document.Document, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, redisBackend, id, start, err) }()

	if err := errs.ValidateDocumentID(id); err != nil {
		return document.Document{}, err
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return document.Document{}, notFound(id)
	}
	if err != nil {
		return document.Document{}, errs.Wrap(errs.ErrCodeStore, err, "get document %s", id)
	}
	doc, err = document.Unmarshal(data)
	if err != nil {
		return document.Document{}, err
	}
	doc.ID = id
	return doc, nil
}

func (s *RedisStore) Put(ctx context.Context, doc *document.Document) (err error) {
	start := time.Now()
	size := 0
	defer func() { observeSave(ctx, redisBackend, doc.ID, size, start, err) }()

	if err := prepare(doc); err != nil {
		return err
	}
	data, err := document.Marshal(*doc)
	if err != nil {
		return err
	}
	size = len(data)

	now := float64(time.Now().UnixMilli())
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(doc.ID), data, 0)
		p.ZAdd(ctx, s.index(), redis.Z{Score: now, Member: doc.ID})
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStore, err, "put document %s", doc.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	defer func() { observability.Store().OnDelete(ctx, redisBackend, id, err) }()

	if err := errs.ValidateDocumentID(id); err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key(id))
		p.ZRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStore, err, "delete document %s", id)
	}
	return nil
}

// List reads the index and fetches every document in one MGET. Ids whose
// key has vanished or no longer parses are skipped.
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	scored, err := s.client.ZRangeWithScores(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "read document index")
	}
	if len(scored) == 0 {
		return nil, nil
	}

	keys := make([]string, len(scored))
	for i, z := range scored {
		keys[i] = s.key(z.Member.(string))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "read documents")
	}

	out := make([]Entry, 0, len(scored))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := document.Unmarshal([]byte(raw))
		if err != nil {
			continue
		}
		doc.ID = scored[i].Member.(string)
		out = append(out, entryOf(doc, time.UnixMilli(int64(scored[i].Score))))
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
