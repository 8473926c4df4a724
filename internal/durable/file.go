package durable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// FileStore keeps all keys in a single JSON document mapping key to string
// value. Every write rewrites the document through a temporary file and a
// rename, so readers never observe a half-written file.
//
// The document is re-read on every call; another process writing the same
// file is visible immediately, and last writer wins.
//
// A document that cannot be decoded reads as empty and is replaced by the
// next write.
type FileStore struct {
	mu     sync.Mutex
	path   string
	perm   os.FileMode
	logger *log.Logger
	closed bool
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileMode sets the permission bits of the document.
func WithFileMode(perm os.FileMode) FileOption {
	return func(s *FileStore) {
		s.perm = perm
	}
}

// WithFileLogger sets the logger that reports a corrupt document.
func WithFileLogger(logger *log.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore creates a store backed by the document at path. The parent
// directory is created if needed; the document itself is created on the
// first write.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("durable: file path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("durable: resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("durable: create directory for %s: %w", abs, err)
	}

	s := &FileStore{path: abs, perm: 0o644, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the absolute path of the backing document.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}

	doc, _, err := s.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set implements Store.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, _, err := s.read()
	if err != nil {
		return err
	}
	doc[key] = string(value)
	return s.write(doc)
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, corrupt, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok && !corrupt {
		return nil
	}
	delete(doc, key)
	return s.write(doc)
}

// Keys implements Store.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	doc, _, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// read loads the document. A missing, empty or undecodable file is an
// empty document; corrupt reports the undecodable case.
func (s *FileStore) read() (doc map[string]string, corrupt bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), false, nil
		}
		return nil, false, fmt.Errorf("durable: read %s: %w", s.path, err)
	}
	doc = make(map[string]string)
	if len(data) == 0 {
		return doc, false, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("ignoring corrupt storage document", "path", s.path, "err", err)
		return make(map[string]string), true, nil
	}
	return doc, false, nil
}

func (s *FileStore) write(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("durable: encode %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("durable: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("durable: write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(s.perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("durable: chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("durable: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("durable: replace %s: %w", s.path, err)
	}
	return nil
}
