package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pantolingo/pantolingo/internal/core/domain"
)

// RedisStore persists translations and the bidirectional pathname map in
// redis. Batched operations go through MGET and pipelines; one round trip
// per call.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "pl"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

// NewRedisStoreWithClient is the test seam.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) translationKey(siteID, lang, hash string) string {
	return fmt.Sprintf("%s:tr:%s:%s:%s", s.prefix, siteID, lang, hash)
}

func (s *RedisStore) lastUsedKey(siteID, lang string) string {
	return fmt.Sprintf("%s:lru:%s:%s", s.prefix, siteID, lang)
}

func (s *RedisStore) pathForwardKey(siteID, lang, original string) string {
	return fmt.Sprintf("%s:pf:%s:%s:%s", s.prefix, siteID, lang, original)
}

func (s *RedisStore) pathReverseKey(siteID, lang, translated string) string {
	return fmt.Sprintf("%s:pr:%s:%s:%s", s.prefix, siteID, lang, translated)
}

func (s *RedisStore) viewsKey(siteID, path string) string {
	return fmt.Sprintf("%s:pv:%s:%s", s.prefix, siteID, path)
}

func (s *RedisStore) Lookup(ctx context.Context, siteID, lang string, hashes []string) (map[string]string, error) {
	if len(hashes) == 0 {
		return map[string]string{}, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = s.translationKey(siteID, lang, h)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(hashes))
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[hashes[i]] = str
		}
	}
	return out, nil
}

// Upsert writes records with SETNX semantics: the stored translation wins,
// updates are an explicit admin action elsewhere.
func (s *RedisStore) Upsert(ctx context.Context, siteID, lang string, records []domain.TranslationRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	now := float64(time.Now().Unix())
	for _, rec := range records {
		pipe.SetNX(ctx, s.translationKey(siteID, lang, rec.Hash), rec.Translated, 0)
		pipe.ZAdd(ctx, s.lastUsedKey(siteID, lang), redis.Z{Score: now, Member: rec.Hash})
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Touch(ctx context.Context, siteID, lang string, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	now := float64(time.Now().Unix())
	members := make([]redis.Z, len(hashes))
	for i, h := range hashes {
		members[i] = redis.Z{Score: now, Member: h}
	}
	return s.client.ZAdd(ctx, s.lastUsedKey(siteID, lang), members...).Err()
}

func (s *RedisStore) LookupPathnames(ctx context.Context, siteID, lang string, originals []string) (map[string]string, error) {
	if len(originals) == 0 {
		return map[string]string{}, nil
	}

	keys := make([]string, len(originals))
	for i, p := range originals {
		keys[i] = s.pathForwardKey(siteID, lang, p)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(originals))
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[originals[i]] = str
		}
	}
	return out, nil
}

func (s *RedisStore) LookupReverse(ctx context.Context, siteID, lang, translated string) (string, error) {
	original, err := s.client.Get(ctx, s.pathReverseKey(siteID, lang, translated)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return original, err
}

// UpsertPathnames populates both directions in one pipeline so the map is
// bidirectionally consistent as soon as the call returns.
func (s *RedisStore) UpsertPathnames(ctx context.Context, siteID, lang string, records []domain.PathnameRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, rec := range records {
		pipe.SetNX(ctx, s.pathForwardKey(siteID, lang, rec.Original), rec.Translated, 0)
		pipe.SetNX(ctx, s.pathReverseKey(siteID, lang, rec.Translated), rec.Original, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) IncrementViews(ctx context.Context, siteID, path string) error {
	return s.client.Incr(ctx, s.viewsKey(siteID, path)).Err()
}

func (s *RedisStore) Views(ctx context.Context, siteID, path string) (int64, error) {
	n, err := s.client.Get(ctx, s.viewsKey(siteID, path)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
