package repository

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/SoulxxMerchant/New/internal/entities"
)

// QuotaRepository abstracts persistence of per-user quota records. The
// rollover/limit logic lives in the quota service; repositories are plain
// keyed storage.
type QuotaRepository interface {
	Get(userID string) (*entities.UserQuota, bool, error)
	Save(userID string, q *entities.UserQuota) error
	List() (map[string]*entities.UserQuota, error)
}

// FileQuotaRepository stores quota records as one JSON object keyed by user
// ID. The whole file is rewritten on every save so the file always matches
// the in-memory state.
type FileQuotaRepository struct {
	path string
	mu   sync.Mutex
	data map[string]*entities.UserQuota
}

// NewFileQuotaRepository loads the quota file, starting empty if it does not
// exist yet.
func NewFileQuotaRepository(path string) (*FileQuotaRepository, error) {
	r := &FileQuotaRepository{path: path, data: map[string]*entities.UserQuota{}}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileQuotaRepository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(&r.data)
}

func (r *FileQuotaRepository) saveLocked() error {
	file, err := os.Create(r.path)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "    ")
	return enc.Encode(r.data)
}

func (r *FileQuotaRepository) Get(userID string) (*entities.UserQuota, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[userID]
	if !ok {
		return nil, false, nil
	}
	copy := *q
	return &copy, true, nil
}

func (r *FileQuotaRepository) Save(userID string, q *entities.UserQuota) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *q
	r.data[userID] = &copy
	return r.saveLocked()
}

func (r *FileQuotaRepository) List() (map[string]*entities.UserQuota, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*entities.UserQuota, len(r.data))
	for id, q := range r.data {
		copy := *q
		out[id] = &copy
	}
	return out, nil
}
