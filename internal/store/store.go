// Package store implements the durable clip store on top of the kv
// substrate. It is the sole writer of clip records; every mutation is
// serialized through one mutex and persisted before the call returns.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jessemcnew/glippy/internal/clip"
	"github.com/jessemcnew/glippy/internal/errors"
	"github.com/jessemcnew/glippy/internal/kv"
)

// MaxClips caps the store; the oldest clips by insertion order are
// evicted beyond this.
const MaxClips = 1000

// clipsKey is the kv key holding the ordered clip list, newest first.
const clipsKey = "clips"

// Store is the durable clip store.
type Store struct {
	kv *kv.Store
	mu sync.Mutex
}

// New creates a clip store backed by the given kv store.
func New(db *kv.Store) *Store {
	return &Store{kv: db}
}

// Append inserts a clip at the head of the list and truncates the tail
// beyond MaxClips. Insertion order is arrival order of Append calls.
func (s *Store) Append(ctx context.Context, c *clip.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.load(ctx)
	if err != nil {
		return err
	}

	clips = append([]clip.Clip{*c}, clips...)
	if len(clips) > MaxClips {
		clips = clips[:MaxClips]
	}

	return s.save(ctx, clips)
}

// List returns all clips, newest first.
func (s *Store) List(ctx context.Context) ([]clip.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the clip with the given id.
func (s *Store) Get(ctx context.Context, id string) (*clip.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clips {
		if clips[i].ID == id {
			c := clips[i]
			return &c, nil
		}
	}
	return nil, errors.NewNotFound("clip " + id)
}

// Update applies a partial merge to the clip with the given id. It
// returns false without writing when the id is absent; it never
// creates a clip.
func (s *Store) Update(ctx context.Context, id string, patch clip.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range clips {
		if clips[i].ID == id {
			patch.Apply(&clips[i])
			if err := s.save(ctx, clips); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the clip with the given id. Local-only: remote copies
// are never touched.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range clips {
		if clips[i].ID == id {
			clips = append(clips[:i], clips[i+1:]...)
			if err := s.save(ctx, clips); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// ClearAll removes every clip.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []clip.Clip{})
}

// Count returns the number of stored clips.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(clips), nil
}

func (s *Store) load(ctx context.Context) ([]clip.Clip, error) {
	values, err := s.kv.Get(ctx, clipsKey)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	raw, ok := values[clipsKey]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var clips []clip.Clip
	if err := json.Unmarshal(raw, &clips); err != nil {
		return nil, errors.NewInternal(err)
	}
	return clips, nil
}

func (s *Store) save(ctx context.Context, clips []clip.Clip) error {
	raw, err := json.Marshal(clips)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.kv.Set(ctx, map[string][]byte{clipsKey: raw}); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
