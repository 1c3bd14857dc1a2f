package kv

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

const redisTxRetries = 3

// Redis is an optional shared backend. Transactions use WATCH on the
// configured keys and commit with MULTI/EXEC.
type Redis struct {
	rdb    *redis.Client
	prefix string
	watch  []string
}

// NewRedis wraps rdb. Keys are stored under prefix; watch lists the logical
// keys guarded by optimistic locking in Update.
func NewRedis(rdb *redis.Client, prefix string, watch ...string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, watch: watch}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, prefix string, watch ...string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedis(rdb, prefix, watch...), nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) View(ctx context.Context, fn func(Txn) error) error {
	return fn(&redisTxn{ctx: ctx, get: r.rdb.Get, r: r})
}

func (r *Redis) Update(ctx context.Context, fn func(Txn) error) error {
	keys := make([]string, len(r.watch))
	for i, k := range r.watch {
		keys[i] = r.key(k)
	}
	txf := func(tx *redis.Tx) error {
		t := &redisTxn{ctx: ctx, get: tx.Get, r: r, writes: map[string][]byte{}, deletes: map[string]bool{}}
		if err := fn(t); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for k, v := range t.writes {
				p.Set(ctx, r.key(k), v, 0)
			}
			for k := range t.deletes {
				p.Del(ctx, r.key(k))
			}
			return nil
		})
		return err
	}
	var err error
	for i := 0; i < redisTxRetries; i++ {
		err = r.rdb.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (r *Redis) Close() error { return r.rdb.Close() }

type redisTxn struct {
	ctx     context.Context
	get     func(ctx context.Context, key string) *redis.StringCmd
	r       *Redis
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *redisTxn) Get(key string) ([]byte, bool, error) {
	if t.writes != nil {
		if v, ok := t.writes[key]; ok {
			return v, true, nil
		}
		if t.deletes[key] {
			return nil, false, nil
		}
	}
	b, err := t.get(t.ctx, t.r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (t *redisTxn) Set(key string, val []byte) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	delete(t.deletes, key)
	t.writes[key] = append([]byte(nil), val...)
	return nil
}

func (t *redisTxn) Delete(key string) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}
