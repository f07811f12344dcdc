// Package storage lit et écrit le fichier JSON des totaux.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"apptime/entity"

	"github.com/spf13/afero"
)

const FileName = "time.json"

var ErrMalformedRecord = errors.New("malformed time record")

// recordFile sert à détecter les champs absents du fichier
type recordFile struct {
	IsTracking     *bool  `json:"is_tracking"`
	InactivityTime *int   `json:"inactivity_time"`
	TotalTime      *int64 `json:"total_time"`
}

type Store struct {
	fs   afero.Fs
	path string
}

func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// NewOS crée un Store sur le disque, dans dataDir/data/time.json
func NewOS(dataDir string) *Store {
	return New(afero.NewOsFs(), filepath.Join(dataDir, "data", FileName))
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Dir() string {
	return filepath.Dir(s.path)
}

// Load retourne found=false si le fichier n'existe pas encore.
func (s *Store) Load() (entity.Record, bool, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return entity.Record{}, false, fmt.Errorf("Load: %w", err)
	}
	if !exists {
		return entity.Record{}, false, nil
	}

	rec, err := s.read()
	if err != nil {
		return entity.Record{}, false, fmt.Errorf("Load: %w", err)
	}
	return rec, true, nil
}

func (s *Store) read() (entity.Record, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return entity.Record{}, err
	}

	var f recordFile
	if err := json.Unmarshal(data, &f); err != nil {
		return entity.Record{}, fmt.Errorf("%s: %w: %v", s.path, ErrMalformedRecord, err)
	}
	switch {
	case f.IsTracking == nil:
		return entity.Record{}, fmt.Errorf("%s: %w: missing is_tracking", s.path, ErrMalformedRecord)
	case f.InactivityTime == nil:
		return entity.Record{}, fmt.Errorf("%s: %w: missing inactivity_time", s.path, ErrMalformedRecord)
	case f.TotalTime == nil:
		return entity.Record{}, fmt.Errorf("%s: %w: missing total_time", s.path, ErrMalformedRecord)
	case *f.TotalTime < 0:
		return entity.Record{}, fmt.Errorf("%s: %w: negative total_time", s.path, ErrMalformedRecord)
	}

	return entity.Record{
		IsTracking:     *f.IsTracking,
		InactivityTime: max(*f.InactivityTime, 1),
		TotalTime:      *f.TotalTime,
	}, nil
}

// Save garde le plus grand des deux totaux (disque ou mémoire) puis réécrit
// le fichier. Le fichier est écrit à côté puis renommé, un arrêt brutal ne
// laisse donc jamais un fichier tronqué. Pas de verrou entre processus :
// le dernier qui écrit gagne pour les réglages, le total ne recule jamais.
func (s *Store) Save(rec entity.Record) (entity.Record, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return rec, fmt.Errorf("Save: %w", err)
	}
	if exists {
		old, err := s.read()
		if err != nil {
			return rec, fmt.Errorf("Save: %w", err)
		}
		rec.TotalTime = max(old.TotalTime, rec.TotalTime)
	}

	if err := s.fs.MkdirAll(s.Dir(), 0o755); err != nil {
		return rec, fmt.Errorf("Save: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("Save: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return rec, fmt.Errorf("Save: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return rec, fmt.Errorf("Save: %w", err)
	}
	return rec, nil
}
