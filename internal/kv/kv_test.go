package kv

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := s.Get(ctx, "a", "b", "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("Get = %v, want a=1 b=2", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("absent key should be missing from result, not present")
	}
}

func TestSet_Overwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, map[string][]byte{"k": []byte("old")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, map[string][]byte{"k": []byte("new")}); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got["k"]) != "new" {
		t.Errorf("value = %q, want new", got["k"])
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, map[string][]byte{"k": []byte("v")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := got["k"]; ok {
		t.Error("key should be gone after Delete")
	}

	// Deleting an absent key is a no-op.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key should not error: %v", err)
	}
}

func TestChangeFeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	if err := s.Set(ctx, map[string][]byte{"cfg": []byte("v1")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c := recvChange(t, ch)
	if c.Key != "cfg" || c.Old != nil || string(c.New) != "v1" {
		t.Errorf("insert change = %+v, want key=cfg old=nil new=v1", c)
	}

	if err := s.Set(ctx, map[string][]byte{"cfg": []byte("v2")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c = recvChange(t, ch)
	if string(c.Old) != "v1" || string(c.New) != "v2" {
		t.Errorf("update change = %+v, want old=v1 new=v2", c)
	}

	if err := s.Delete(ctx, "cfg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	c = recvChange(t, ch)
	if string(c.Old) != "v2" || c.New != nil {
		t.Errorf("delete change = %+v, want old=v2 new=nil", c)
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	s := openTestStore(t)
	ch := s.Subscribe()
	s.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func recvChange(t *testing.T, ch chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return Change{}
	}
}
