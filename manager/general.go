package manager

import (
	"fmt"
	"strings"
	"sync"
)

// ListStore est la partie de la base utilisée par le gestionnaire de listes
type ListStore interface {
	InsertWatched(name string) error
	DeleteFromWatched(name string) error
	GetAllWatched() ([]string, error)
	InsertIgnored(name string) error
	DeleteFromIgnored(name string) error
	GetAllIgnored() ([]string, error)
}

// Structure pour gérer les listes d'applications en mémoire
type ListManager struct {
	db      ListStore
	watched map[string]struct{} // Utilisation d'un map pour des lookups O(1)
	ignored map[string]struct{}
	mutex   sync.RWMutex
}

// Créer un nouveau gestionnaire de liste
func NewListManager(db ListStore) (*ListManager, error) {
	lm := &ListManager{
		db:      db,
		watched: make(map[string]struct{}),
		ignored: make(map[string]struct{}),
	}

	// Charger les listes initiales
	if err := lm.RefreshLists(); err != nil {
		return nil, err
	}

	return lm, nil
}

// Seed remplit les listes depuis la configuration, seulement au premier
// lancement : une liste déjà modifiée par l'utilisateur n'est pas touchée.
func (lm *ListManager) Seed(watched, ignored []string) error {
	lm.mutex.RLock()
	empty := len(lm.watched) == 0 && len(lm.ignored) == 0
	lm.mutex.RUnlock()
	if !empty {
		return nil
	}

	for _, name := range watched {
		if err := lm.AddToWatched(name); err != nil {
			return fmt.Errorf("Seed: %w", err)
		}
	}
	for _, name := range ignored {
		if err := lm.AddToIgnored(name); err != nil {
			return fmt.Errorf("Seed: %w", err)
		}
	}
	return nil
}

// Rafraîchir les listes depuis la base de données
func (lm *ListManager) RefreshLists() error {
	watchedNames, err := lm.db.GetAllWatched()
	if err != nil {
		return fmt.Errorf("RefreshLists: %w", err)
	}

	ignoredNames, err := lm.db.GetAllIgnored()
	if err != nil {
		return fmt.Errorf("RefreshLists: %w", err)
	}

	newWatched := make(map[string]struct{}, len(watchedNames))
	for _, name := range watchedNames {
		newWatched[name] = struct{}{}
	}

	newIgnored := make(map[string]struct{}, len(ignoredNames))
	for _, name := range ignoredNames {
		newIgnored[name] = struct{}{}
	}

	// Remplacer les anciennes listes
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.watched = newWatched
	lm.ignored = newIgnored

	return nil
}

// Vérifier si un chemin contient une entrée de la liste suivie
func (lm *ListManager) IsWatched(path string) bool {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return containsEntry(lm.watched, path)
}

// Vérifier si un chemin contient une entrée de la liste ignorée
func (lm *ListManager) IsIgnored(path string) bool {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return containsEntry(lm.ignored, path)
}

// Matches : suivi et pas ignoré
func (lm *ListManager) Matches(path string) bool {
	return !lm.IsIgnored(path) && lm.IsWatched(path)
}

func (lm *ListManager) Watched() []string {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return keys(lm.watched)
}

func (lm *ListManager) Ignored() []string {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return keys(lm.ignored)
}

// Ajouter à la liste suivie et mettre à jour la mémoire
func (lm *ListManager) AddToWatched(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if err := lm.db.InsertWatched(name); err != nil {
		return err
	}

	lm.mutex.Lock()
	lm.watched[name] = struct{}{}
	lm.mutex.Unlock()

	return nil
}

// Retirer de la liste suivie et mettre à jour la mémoire
func (lm *ListManager) RemoveFromWatched(name string) error {
	if err := lm.db.DeleteFromWatched(name); err != nil {
		return err
	}

	lm.mutex.Lock()
	delete(lm.watched, name)
	lm.mutex.Unlock()

	return nil
}

func (lm *ListManager) AddToIgnored(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if err := lm.db.InsertIgnored(name); err != nil {
		return err
	}

	lm.mutex.Lock()
	lm.ignored[name] = struct{}{}
	lm.mutex.Unlock()

	return nil
}

func (lm *ListManager) RemoveFromIgnored(name string) error {
	if err := lm.db.DeleteFromIgnored(name); err != nil {
		return err
	}

	lm.mutex.Lock()
	delete(lm.ignored, name)
	lm.mutex.Unlock()

	return nil
}

// La comparaison ignore la casse : les chemins Windows et macOS ne sont pas
// sensibles à la casse.
func containsEntry(list map[string]struct{}, path string) bool {
	lower := strings.ToLower(path)
	for entry := range list {
		if strings.Contains(lower, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}

func keys(list map[string]struct{}) []string {
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	return names
}
