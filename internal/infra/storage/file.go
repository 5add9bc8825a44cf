package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

// FileStore keeps all incidents in one JSON array file. Every write is a
// locked read-modify-write followed by an atomic rename, so concurrent
// saves within one process never lose records.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory for %s", path)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(_ context.Context, in *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	return s.write(append(list, in))
}

func (s *FileStore) List(_ context.Context) ([]*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Delete(_ context.Context, id domain.IncidentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	return s.write(removeID(list, id))
}

// Ping checks that the data directory is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

func (s *FileStore) load() ([]*domain.Incident, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*domain.Incident{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", s.path)
	}
	return decodeList(data)
}

func (s *FileStore) write(list []*domain.Incident) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".incidents-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "failed to replace %s", s.path)
}

func decodeList(data []byte) ([]*domain.Incident, error) {
	list := []*domain.Incident{}
	if len(data) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "failed to decode incidents")
	}
	return list, nil
}

func removeID(list []*domain.Incident, id domain.IncidentID) []*domain.Incident {
	out := list[:0]
	for _, in := range list {
		if in.ID != id {
			out = append(out, in)
		}
	}
	return out
}
