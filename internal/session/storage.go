// internal/session/storage.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	apperrors "fieldsales-console/internal/common/errors"
)

// Persisted is what survives a restart: the bearer token and, for managers,
// the cached team id.
type Persisted struct {
	Token  string `json:"token,omitempty"`
	TeamID int64  `json:"teamId,omitempty"`
}

// Storage is the durable side of the session.
type Storage interface {
	Load(ctx context.Context) (Persisted, error)
	SaveToken(ctx context.Context, token string) error
	SaveTeamID(ctx context.Context, teamID int64) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the two keys in process. Used by tests and by the
// memory backend.
type MemoryStorage struct {
	mu   sync.Mutex
	data Persisted
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(context.Context) (Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

func (m *MemoryStorage) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.data.Token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) SaveTeamID(_ context.Context, teamID int64) error {
	m.mu.Lock()
	m.data.TeamID = teamID
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	m.data = Persisted{}
	m.mu.Unlock()
	return nil
}

// FileStorage keeps the session in a JSON file readable only by its owner.
// Writes go through a temp file and a rename.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load(context.Context) (Persisted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStorage) SaveToken(_ context.Context, token string) error {
	return f.update(func(p *Persisted) { p.Token = token })
}

func (f *FileStorage) SaveTeamID(_ context.Context, teamID int64) error {
	return f.update(func(p *Persisted) { p.TeamID = teamID })
}

func (f *FileStorage) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.NewStorageError("clear session file", err)
	}
	return nil
}

func (f *FileStorage) read() (Persisted, error) {
	var p Persisted
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, apperrors.NewStorageError("read session file", err)
	}
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Persisted{}, apperrors.NewStorageError("decode session file", err)
	}
	return p, nil
}

func (f *FileStorage) update(mutate func(*Persisted)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.read()
	if err != nil {
		return err
	}
	mutate(&p)

	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.NewStorageError("encode session file", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.NewStorageError("create session dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return apperrors.NewStorageError("create session temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("write session file", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("chmod session file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("close session file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return apperrors.NewStorageError("replace session file", err)
	}
	return nil
}
