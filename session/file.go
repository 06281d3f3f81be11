package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger *zap.Logger
	ttl    time.Duration
	prefix string
}

var defaultOptions = options{
	logger: zap.NewNop(),
	ttl:    24 * time.Hour,
	prefix: "shopcrawler:session:",
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithTTL sets how long a saved session stays loadable. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(opts *options) {
		opts.ttl = ttl
	}
}

// WithKeyPrefix sets the redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(opts *options) {
		opts.prefix = prefix
	}
}

// FileStore keeps one JSON file per session so a new process can resume
// what an old one suspended.
type FileStore struct {
	options
	dir string
	now func() time.Time
}

func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	return &FileStore{options: options, dir: dir, now: time.Now}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *FileStore) Save(_ context.Context, s *Session) error {
	if !ValidID(s.ID) {
		return ErrInvalidID
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = f.now()
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, s.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("save session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(s.ID)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	f.logger.Info("session saved", zap.String("session_id", s.ID), zap.String("url", s.URL))
	return nil
}

func (f *FileStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}

	b, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	if expired(&s, f.ttl, f.now()) {
		f.logger.Info("session expired", zap.String("session_id", id))
		_ = f.Delete(ctx, id)
		return nil, ErrNotFound
	}

	return &s, nil
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	err := os.Remove(f.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
