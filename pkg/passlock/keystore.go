package passlock

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/absfs/absfs"
)

// DefaultKeyFile is the well-known relative path of a persisted master key.
const DefaultKeyFile = "secret.key"

var (
	ErrNoMasterKey     = errors.New("no master key has been stored")
	ErrMasterKeyExists = errors.New("a master key has already been stored")
)

// KeyStore persists a single encoded master key.
type KeyStore interface {
	// Load returns the stored key, or ErrNoMasterKey if none has been created.
	Load() ([]byte, error)
	// Create stores the key only if no key exists yet, returning ErrMasterKeyExists otherwise.
	// A concurrent Load must observe either no key or the complete key.
	Create(key []byte) error
}

var (
	_ KeyStore = (*MemoryKeyStore)(nil)
	_ KeyStore = (*FileKeyStore)(nil)
	_ KeyStore = (*FSKeyStore)(nil)
)

// MemoryKeyStore keeps the master key in process memory.
type MemoryKeyStore struct {
	mux sync.Mutex
	key []byte
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return new(MemoryKeyStore)
}

func (s *MemoryKeyStore) Load() ([]byte, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.key == nil {
		return nil, ErrNoMasterKey
	}
	return append([]byte(nil), s.key...), nil
}

func (s *MemoryKeyStore) Create(key []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.key != nil {
		return ErrMasterKeyExists
	}
	s.key = append([]byte(nil), key...)
	return nil
}

// FileKeyStore keeps the master key in a single file on the OS filesystem.
// The key is written to a temporary file in the same directory, and then hard linked into place.
// Linking fails if the target exists, so exactly one creator wins, even across processes.
type FileKeyStore struct {
	path string
}

// NewFileKeyStore creates a FileKeyStore at the given path, or DefaultKeyFile if the path is empty.
func NewFileKeyStore(path string) *FileKeyStore {
	if len(path) == 0 {
		path = DefaultKeyFile
	}
	return &FileKeyStore{path: path}
}

func (s *FileKeyStore) Path() string {
	return s.path
}

func (s *FileKeyStore) Load() ([]byte, error) {
	key, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoMasterKey
		}
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}
	return key, nil
}

func (s *FileKeyStore) Create(key []byte) error {
	if _, err := os.Stat(s.path); err == nil {
		return ErrMasterKeyExists
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary key file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(key); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary key file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary key file: %w", err)
	}
	if err := os.Link(tmp.Name(), s.path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrMasterKeyExists
		}
		return fmt.Errorf("failed to publish master key: %w", err)
	}
	return nil
}

// FSKeyStore keeps the master key in a file on an absfs.FileSystem.
// The file is opened with O_EXCL, and access through the same FSKeyStore is serialized,
// so a reader never observes a partially written key.
type FSKeyStore struct {
	mux  sync.Mutex
	fsys absfs.FileSystem
	path string
}

// NewFSKeyStore creates an FSKeyStore at the given slash separated path, or DefaultKeyFile if the path is empty.
func NewFSKeyStore(fsys absfs.FileSystem, path string) *FSKeyStore {
	if len(path) == 0 {
		path = DefaultKeyFile
	}
	return &FSKeyStore{
		fsys: fsys,
		path: path,
	}
}

func (s *FSKeyStore) Load() ([]byte, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	f, err := s.fsys.OpenFile(s.path, os.O_RDONLY, 0)
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNoMasterKey
		}
		return nil, fmt.Errorf("failed to open master key: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	key, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read master key: %w", err)
	}
	return key, nil
}

func (s *FSKeyStore) Create(key []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, err := s.fsys.Stat(s.path); err == nil {
		return ErrMasterKeyExists
	} else if !isNotExist(err) {
		return fmt.Errorf("failed to check for master key: %w", err)
	}
	if dir := path.Dir(s.path); dir != "." && dir != "/" {
		if err := s.fsys.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	f, err := s.fsys.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrMasterKeyExists
		}
		return fmt.Errorf("failed to create master key file: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		_ = s.fsys.Remove(s.path)
		return fmt.Errorf("failed to write master key: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close master key file: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
