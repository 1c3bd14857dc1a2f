// Package runstate is the only code that touches run state keys. Every write
// is one kv transaction, so a batch of key writes lands together or not at all.
package runstate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/kv"
	"github.com/yourorg/rips-import/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// State is the typed view of the persisted run state.
type State struct {
	Action        types.ActionState
	ClientIndex   int
	ClientData    types.Batch
	Settings      *types.Settings
	ErrorLog      []string
	Duplicates    []string
	RunID         string
	SchemaVersion int
}

// Client returns the record under the cursor.
func (s State) Client() (types.Record, bool) { return s.ClientData.At(s.ClientIndex) }

// Change is emitted after a committed write. For the append-only keys
// (ADD_MESSAGE, DUPLICATE_CLIENT_UNHCR_NO) New is the appended item, or ""
// when the list was reset.
type Change struct {
	Key Key
	Old any
	New any
}

// Values is a raw write: key to value. An empty value ("" or nil) selects the
// key's reset or auto-increment rule.
type Values map[string]any

// Store is the typed accessor over a kv backend.
type Store struct {
	kv  kv.Store
	log *zap.Logger

	mu   sync.Mutex
	subs map[int]func(Change)
	next int
}

func New(backend kv.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: backend, log: log, subs: map[int]func(Change){}}
}

// Close closes the backend.
func (s *Store) Close() error { return s.kv.Close() }

// Subscribe registers fn for every committed change. fn runs on the writer's
// goroutine and must not block.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(changes []Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

// Get returns the decoded values of the requested keys. Absent keys are
// omitted from the result.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	err := s.kv.View(ctx, func(tx kv.Txn) error {
		for _, k := range keys {
			if _, ok := knownKey(k); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownKey, k)
			}
			raw, ok, err := tx.Get(k)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadValue, k, err)
			}
			if v != nil {
				out[k] = v
			}
		}
		return nil
	})
	return out, err
}

// Set applies the per-key write rules for every entry in values inside one
// transaction and returns one status line per key.
func (s *Store) Set(ctx context.Context, values Values) ([]string, error) {
	var (
		status  []string
		changes []Change
	)
	for k := range values {
		if _, ok := knownKey(k); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
	}
	err := s.kv.Update(ctx, func(tx kv.Txn) error {
		status, changes = status[:0], changes[:0]
		for _, key := range Keys {
			v, ok := values[string(key)]
			if !ok {
				continue
			}
			line, ch, err := apply(tx, key, v)
			if err != nil {
				return err
			}
			status = append(status, line)
			changes = append(changes, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("run state written", zap.Strings("status", status))
	s.emit(changes)
	return status, nil
}

func apply(tx kv.Txn, key Key, v any) (string, Change, error) {
	k := string(key)
	switch key {
	case KeyClientIndex:
		old, err := readIndex(tx)
		if err != nil {
			return "", Change{}, err
		}
		next := old + 1
		if !isEmpty(v) {
			if next, err = toInt(v); err != nil {
				return "", Change{}, fmt.Errorf("%w: %s: %v", ErrBadValue, k, err)
			}
		}
		if err := put(tx, k, next); err != nil {
			return "", Change{}, err
		}
		return fmt.Sprintf("Saved: %s:%d", k, next), Change{Key: key, Old: old, New: next}, nil

	case KeyMessage, KeyDuplicates:
		list, err := readList(tx, k)
		if err != nil {
			return "", Change{}, err
		}
		if isEmpty(v) {
			if err := put(tx, k, []string{}); err != nil {
				return "", Change{}, err
			}
			return "Cleared: " + k, Change{Key: key, Old: list, New: ""}, nil
		}
		item := fmt.Sprint(v)
		if err := put(tx, k, append(list, item)); err != nil {
			return "", Change{}, err
		}
		return fmt.Sprintf("Saved: %s:%s", k, item), Change{Key: key, New: item}, nil

	default:
		var old any
		if raw, ok, err := tx.Get(k); err != nil {
			return "", Change{}, err
		} else if ok {
			if err := json.Unmarshal(raw, &old); err != nil {
				return "", Change{}, fmt.Errorf("%w: %s: %v", ErrBadValue, k, err)
			}
		}
		if isEmpty(v) {
			if err := put(tx, k, ""); err != nil {
				return "", Change{}, err
			}
			return "Cleared: " + k, Change{Key: key, Old: old, New: ""}, nil
		}
		if err := put(tx, k, v); err != nil {
			return "", Change{}, err
		}
		return fmt.Sprintf("Saved: %s:%s", k, display(v)), Change{Key: key, Old: old, New: v}, nil
	}
}

func put(tx kv.Txn, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadValue, key, err)
	}
	return tx.Set(key, b)
}

func readIndex(tx kv.Txn) (int, error) {
	raw, ok, err := tx.Get(string(KeyClientIndex))
	if err != nil || !ok {
		return 0, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadValue, KeyClientIndex, err)
	}
	if isEmpty(v) {
		return 0, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadValue, KeyClientIndex, err)
	}
	return n, nil
}

func readList(tx kv.Txn, key string) ([]string, error) {
	raw, ok, err := tx.Get(key)
	if err != nil || !ok {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		// a bare "" from an older clear counts as an empty list
		var s string
		if json.Unmarshal(raw, &s) == nil && s == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrBadValue, key, err)
	}
	return list, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case jsoniter.Number:
		n, err := x.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func display(v any) string {
	switch x := v.(type) {
	case types.Batch:
		return fmt.Sprintf("[%d records]", len(x))
	case []any:
		return fmt.Sprintf("[%d items]", len(x))
	case types.Settings, *types.Settings, map[string]any:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return fmt.Sprint(v)
}
