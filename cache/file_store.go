package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// fileStore implements Store on the local filesystem
type fileStore struct {
	logger logger.Logger

	path              string
	lockPath          string
	lockTimeout       time.Duration
	lockRetryInterval time.Duration
}

// New creates a file-backed Store.
// It returns an error if the configuration is invalid. Nothing is created
// on disk until the first lock or write.
func New(log logger.Logger, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig("config is required")
	}
	cfg = cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	path := cfg.Path()
	return &fileStore{
		logger:            log,
		path:              path,
		lockPath:          path + ".lock",
		lockTimeout:       cfg.LockTimeout,
		lockRetryInterval: cfg.LockRetryInterval,
	}, nil
}

// Path returns the document location
func (s *fileStore) Path() string {
	return s.path
}

// Read loads the document under a shared lock
func (s *fileStore) Read(ctx context.Context) (*feed.Document, error) {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	lock, err := s.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	return s.readLocked()
}

// Write replaces the document under an exclusive lock
func (s *fileStore) Write(ctx context.Context, doc *feed.Document) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	lock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer lock.release()

	return s.writeLocked(doc)
}

// Delete removes the document under an exclusive lock
func (s *fileStore) Delete(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	lock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer lock.release()

	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return ErrDelete(s.path, err)
	}
	s.logger.Info("feed document deleted", zap.String("path", s.path))
	return nil
}

// Update holds the exclusive lock across read, fn and write
func (s *fileStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	lock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer lock.release()

	current, err := s.readLocked()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return s.writeLocked(next)
}

func (s *fileStore) lock(ctx context.Context, exclusive bool) (*fileLock, error) {
	return acquireLock(ctx, s.lockPath, exclusive, s.lockTimeout, s.lockRetryInterval)
}

func (s *fileStore) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ErrCreateDir(dir, err)
	}
	return nil
}

// readLocked loads and decodes the document; the caller holds a lock.
// Corrupt documents are logged and reported as ErrNotFound so that the
// caller rebuilds them.
func (s *fileStore) readLocked() (*feed.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("feed document unreadable, treating as missing",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return nil, ErrNotFound
	}

	var doc feed.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("feed document corrupt, treating as missing",
			zap.String("path", s.path),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return nil, ErrNotFound
	}
	return &doc, nil
}

// writeLocked encodes doc into a temporary file next to the target and
// renames it into place; the caller holds the exclusive lock.
func (s *fileStore) writeLocked(doc *feed.Document) error {
	if doc == nil {
		return ErrWrite(s.path, errors.New("nil document"))
	}
	if doc.Posts == nil {
		doc.Posts = make(map[uint64]feed.Item)
	}

	data, err := Encode(doc)
	if err != nil {
		return ErrWrite(s.path, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return ErrWrite(s.path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ErrWrite(s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ErrWrite(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return ErrWrite(s.path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return ErrWrite(s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return ErrWrite(s.path, err)
	}
	committed = true

	s.logger.Debug("feed document written",
		zap.String("path", s.path),
		zap.Int("items", len(doc.Posts)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Encode serializes a document exactly as it is stored on disk.
// Map keys are sorted, so identical documents encode to identical bytes.
func Encode(doc *feed.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
