package tokensource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrReadOnly is returned when writing to a store that cannot be written.
var ErrReadOnly = errors.New("token store is read-only")

// Store persists the backend API key. Read returns "" when no key is stored.
// Writing "" clears the key.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, key string) error
}

// EnvStore reads the key from an environment variable.
type EnvStore struct {
	name   string
	lookup func(string) (string, bool)
}

// NewEnvStore returns a read-only store backed by the environment variable name.
func NewEnvStore(name string) *EnvStore {
	return &EnvStore{name: name, lookup: os.LookupEnv}
}

func (s *EnvStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, _ := s.lookup(s.name)
	return strings.TrimSpace(value), nil
}

func (s *EnvStore) Write(context.Context, string) error {
	return fmt.Errorf("env %s: %w", s.name, ErrReadOnly)
}

// FileStore keeps the key in a file readable only by its owner.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path. A leading "~/" expands to the
// user's home directory.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: expandHome(path)}
}

// Path returns the expanded file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write replaces the key file atomically. An empty key removes the file.
func (s *FileStore) Write(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove key file: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".api-key-*")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp key file: %w", err)
	}
	if _, err := tmp.WriteString(key + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}

// KeyringStore keeps the key in the operating system keyring.
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore returns a store for the keyring entry service/user.
func NewKeyringStore(service, user string) *KeyringStore {
	return &KeyringStore{service: service, user: user}
}

func (s *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return key, nil
}

func (s *KeyringStore) Write(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("keyring delete: %w", err)
		}
		return nil
	}

	if err := keyring.Set(s.service, s.user, key); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
