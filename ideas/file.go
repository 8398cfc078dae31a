package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/alghanim/clawboard/models"
)

type ideasFile struct {
	Ideas []models.Idea `json:"ideas"`
}

// FileStore keeps ideas in a JSON file. Appends are serialized by a mutex
// and written through a temp file and rename, so readers never see a
// partial file.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// List returns all ideas. A missing file is an empty list.
func (s *FileStore) List(ctx context.Context) ([]models.Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Append(ctx context.Context, idea models.Idea) (models.Idea, error) {
	if err := ctx.Err(); err != nil {
		return models.Idea{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return models.Idea{}, err
	}
	list = append(list, idea)
	if err := s.write(list); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

func (s *FileStore) read() ([]models.Idea, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Idea{}, nil
		}
		return nil, fmt.Errorf("reading ideas: %w", err)
	}
	var f ideasFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing ideas %s: %w", s.Path, err)
	}
	if f.Ideas == nil {
		f.Ideas = []models.Idea{}
	}
	return f.Ideas, nil
}

func (s *FileStore) write(list []models.Idea) error {
	data, err := json.MarshalIndent(ideasFile{Ideas: list}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ideas: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating ideas directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ideas-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing ideas: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing ideas: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing ideas file: %w", err)
	}
	return nil
}
