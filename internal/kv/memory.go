package kv

import (
	"context"
	"sync"
)

// Memory is a process-local store used by tests and by STATE_BACKEND=memory.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool
	// FailUpdates makes every Update fail with this error; for tests.
	FailUpdates error
}

func NewMemory() *Memory { return &Memory{data: map[string][]byte{}} }

func (m *Memory) View(ctx context.Context, fn func(Txn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return fn(&memTxn{base: m.data})
}

func (m *Memory) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.FailUpdates != nil {
		return m.FailUpdates
	}
	t := &memTxn{base: m.data, writes: map[string][]byte{}, deletes: map[string]bool{}}
	if err := fn(t); err != nil {
		return err
	}
	for k, v := range t.writes {
		m.data[k] = v
	}
	for k := range t.deletes {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

type memTxn struct {
	base    map[string][]byte
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *memTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	if t.deletes[key] {
		return nil, false, nil
	}
	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (t *memTxn) Set(key string, val []byte) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	delete(t.deletes, key)
	t.writes[key] = append([]byte(nil), val...)
	return nil
}

func (t *memTxn) Delete(key string) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}
