// Package transcript persists conversation transcripts in a bbolt database.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"dcl/internal/domain"
)

var (
	ErrStoreClosed = errors.New("transcript store is closed")
	ErrMissingID   = errors.New("transcript id is required")
)

type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
	now    func() time.Time
}

func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("transcript path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure transcript dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: trimmed, now: time.Now}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Save writes a transcript, keeping the original CreatedAt of an existing record.
func (s *Store) Save(_ context.Context, record domain.Transcript) error {
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return ErrMissingID
	}
	record.ID = id
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(conversationsBucketName))
		if bucket == nil {
			return fmt.Errorf("missing conversations bucket")
		}
		now := s.now().UTC()
		if existing := bucket.Get([]byte(id)); existing != nil {
			var previous domain.Transcript
			if err := json.Unmarshal(existing, &previous); err == nil && !previous.CreatedAt.IsZero() {
				record.CreatedAt = previous.CreatedAt
			}
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode transcript %s: %w", id, err)
		}
		if err := bucket.Put([]byte(id), raw); err != nil {
			return fmt.Errorf("write transcript %s: %w", id, err)
		}
		return nil
	})
}

func (s *Store) Get(_ context.Context, id string) (domain.Transcript, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Transcript{}, ErrMissingID
	}
	var record domain.Transcript
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(conversationsBucketName))
		if bucket == nil {
			return fmt.Errorf("missing conversations bucket")
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
		}
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("decode transcript %s: %w", id, err)
		}
		return nil
	})
	return record, err
}

// List returns transcript summaries, most recently updated first.
func (s *Store) List(_ context.Context) ([]domain.TranscriptSummary, error) {
	var out []domain.TranscriptSummary
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(conversationsBucketName))
		if bucket == nil {
			return fmt.Errorf("missing conversations bucket")
		}
		return bucket.ForEach(func(key, value []byte) error {
			var record domain.Transcript
			if err := json.Unmarshal(value, &record); err != nil {
				return fmt.Errorf("decode transcript %s: %w", key, err)
			}
			out = append(out, domain.TranscriptSummary{
				ID:          record.ID,
				Model:       record.Model,
				CreatedAt:   record.CreatedAt,
				UpdatedAt:   record.UpdatedAt,
				Messages:    len(record.Messages),
				ActiveTools: len(record.Disclosure.ActiveTools),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingID
	}
	return s.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(conversationsBucketName))
		if bucket == nil {
			return fmt.Errorf("missing conversations bucket")
		}
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}

var _ domain.TranscriptStore = (*Store)(nil)
