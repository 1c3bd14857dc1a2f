package kv

import (
	"context"
	"errors"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return map[string]Store{"memory": NewMemory(), "badger": b}
}

func TestUpdateCommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		err := s.Update(ctx, func(tx Txn) error {
			if err := tx.Set("a", []byte("1")); err != nil {
				return err
			}
			return tx.Set("b", []byte("2"))
		})
		if err != nil {
			t.Fatalf("%s: update: %v", name, err)
		}
		err = s.View(ctx, func(tx Txn) error {
			for k, want := range map[string]string{"a": "1", "b": "2"} {
				v, ok, err := tx.Get(k)
				if err != nil || !ok || string(v) != want {
					t.Fatalf("%s: Get(%s)=%q,%v,%v", name, k, v, ok, err)
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("%s: view: %v", name, err)
		}
	}
}

func TestUpdateErrorDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range stores(t) {
		err := s.Update(ctx, func(tx Txn) error {
			_ = tx.Set("x", []byte("1"))
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("%s: want boom, got %v", name, err)
		}
		_ = s.View(ctx, func(tx Txn) error {
			if _, ok, _ := tx.Get("x"); ok {
				t.Fatalf("%s: write leaked from failed txn", name)
			}
			return nil
		})
	}
}

func TestReadYourWritesAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		_ = s.Update(ctx, func(tx Txn) error { return tx.Set("k", []byte("v")) })
		err := s.Update(ctx, func(tx Txn) error {
			if err := tx.Delete("k"); err != nil {
				return err
			}
			if _, ok, _ := tx.Get("k"); ok {
				t.Fatalf("%s: deleted key still visible", name)
			}
			return tx.Set("k2", []byte("w"))
		})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestMemoryViewIsReadOnly(t *testing.T) {
	m := NewMemory()
	err := m.View(context.Background(), func(tx Txn) error { return tx.Set("a", nil) })
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("want ErrReadOnly, got %v", err)
	}
}
