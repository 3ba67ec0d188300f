package testkit

import (
	"bytes"
	"fmt"
	"testing"

	"xdao.co/claimledger/storage"
)

// NewKV constructs a fresh, empty KV instance for a test.
// The returned KV MUST be isolated from other tests.
type NewKV func(t *testing.T) storage.KV

func RunKVConformance(t *testing.T, newKV NewKV) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		kv := newKV(t)
		key, want := []byte("k1"), []byte("hello, ledger storage")

		if err := kv.Put(key, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := kv.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch: got %q want %q", got, want)
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		kv := newKV(t)
		key := []byte("k")
		for _, v := range []string{"first", "second", "3"} {
			if err := kv.Put(key, []byte(v)); err != nil {
				t.Fatalf("Put(%s) failed: %v", v, err)
			}
		}
		got, err := kv.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "3" {
			t.Fatalf("expected last write to win, got %q", got)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		kv := newKV(t)
		_, err := kv.Get([]byte("missing"))
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("ValuesDoNotAlias", func(t *testing.T) {
		kv := newKV(t)
		key, val := []byte("alias"), []byte("abc")
		if err := kv.Put(key, val); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		val[0] = 'X'
		got, err := kv.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "abc" {
			t.Fatalf("stored value aliased caller memory: %q", got)
		}
		got[0] = 'Y'
		again, err := kv.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(again) != "abc" {
			t.Fatalf("returned value aliased store memory: %q", again)
		}
	})

	t.Run("IteratePrefixOrdered", func(t *testing.T) {
		kv := newKV(t)
		for _, k := range []string{"b/2", "a/1", "b/1", "b/10", "c/1", "b"} {
			if err := kv.Put([]byte(k), []byte("v:"+k)); err != nil {
				t.Fatalf("Put(%s) failed: %v", k, err)
			}
		}
		var seen []string
		err := kv.Iterate([]byte("b/"), func(key, value []byte) error {
			if string(value) != "v:"+string(key) {
				return fmt.Errorf("value mismatch for %q: %q", key, value)
			}
			seen = append(seen, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("Iterate failed: %v", err)
		}
		want := []string{"b/1", "b/10", "b/2"}
		if fmt.Sprint(seen) != fmt.Sprint(want) {
			t.Fatalf("Iterate order: got %v want %v", seen, want)
		}
	})

	t.Run("IterateStopsOnError", func(t *testing.T) {
		kv := newKV(t)
		for _, k := range []string{"p1", "p2", "p3"} {
			if err := kv.Put([]byte(k), []byte("v")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}
		stop := fmt.Errorf("stop")
		calls := 0
		err := kv.Iterate([]byte("p"), func(key, value []byte) error {
			calls++
			return stop
		})
		if err != stop {
			t.Fatalf("Iterate: got err=%v want %v", err, stop)
		}
		if calls != 1 {
			t.Fatalf("Iterate continued after error: %d calls", calls)
		}
	})

	t.Run("BinaryKeys", func(t *testing.T) {
		kv := newKV(t)
		key := []byte{0x00, 0xff, 0x00, 0x10}
		if err := kv.Put(key, []byte{0x01}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := kv.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte{0x01}) {
			t.Fatalf("binary key round trip mismatch")
		}
		if _, err := kv.Get(key[:3]); !storage.IsNotFound(err) {
			t.Fatalf("prefix of key must not match: %v", err)
		}
	})
}
