package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"authweb/internal/models"
)

// IPersister stores the single durable session record. Load reports ok=false
// when no record exists yet, which is not an error.
type IPersister interface {
	Save(record models.PersistedSession) error
	Load() (record models.PersistedSession, ok bool, err error)
	Clear() error
}

// FilePersister keeps the session as one JSON file, readable only by the
// owner. The directory is created on first save.
type FilePersister struct {
	path string
}

var _ IPersister = (*FilePersister)(nil)

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Save(record models.PersistedSession) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p.path, data, 0o600)
}

func (p *FilePersister) Load() (models.PersistedSession, bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.PersistedSession{}, false, nil
		}
		return models.PersistedSession{}, false, err
	}

	var record models.PersistedSession
	if err := json.Unmarshal(data, &record); err != nil {
		return models.PersistedSession{}, false, err
	}
	return record, true, nil
}

func (p *FilePersister) Clear() error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
