package tracker

import (
	"errors"
	"fmt"

	"apptime/entity"
)

const (
	DefaultThresholdMinutes = 20
	MinThresholdMinutes     = 1
)

var ErrInvalidThreshold = errors.New("inactivity threshold must be at least 1 minute")

// Settings regroupe les deux valeurs réglables par l'utilisateur
type Settings struct {
	TrackingEnabled  bool
	ThresholdMinutes int
}

func DefaultSettings() Settings {
	return Settings{
		TrackingEnabled:  true,
		ThresholdMinutes: DefaultThresholdMinutes,
	}
}

// State contient les compteurs du suivi.
//
// State n'est pas protégé par un verrou : toutes les lectures et écritures
// doivent se faire depuis la boucle de l'hôte, qui exécute les callbacks
// l'un après l'autre.
type State struct {
	Settings
	SessionSeconds   int64
	LifetimeSeconds  int64
	CountdownSeconds int64
}

func NewState(settings Settings) *State {
	return &State{Settings: settings}
}

// Tick ajoute une seconde aux deux totaux si le suivi est actif et que le
// compte à rebours d'inactivité n'est pas écoulé.
func (s *State) Tick() bool {
	if !s.TrackingEnabled || s.CountdownSeconds <= 0 {
		return false
	}
	s.SessionSeconds++
	s.LifetimeSeconds++
	s.CountdownSeconds--
	return true
}

// ResetCountdown réarme le compte à rebours à partir du seuil courant
func (s *State) ResetCountdown() {
	s.CountdownSeconds = int64(s.ThresholdMinutes) * 60
}

// Pause vide le compte à rebours, plus rien ne s'accumule avant la
// prochaine activité
func (s *State) Pause() {
	s.CountdownSeconds = 0
}

func (s *State) SetTracking(enabled bool) {
	s.TrackingEnabled = enabled
}

// SetThreshold ne touche pas au compte à rebours en cours, il sera réarmé
// à la prochaine activité.
func (s *State) SetThreshold(minutes int) error {
	if minutes < MinThresholdMinutes {
		return fmt.Errorf("SetThreshold %d: %w", minutes, ErrInvalidThreshold)
	}
	s.ThresholdMinutes = minutes
	return nil
}

// Apply charge les réglages et le total persistés
func (s *State) Apply(rec entity.Record) {
	s.TrackingEnabled = rec.IsTracking
	s.ThresholdMinutes = max(rec.InactivityTime, MinThresholdMinutes)
	s.LifetimeSeconds = rec.TotalTime
}

func (s *State) Record() entity.Record {
	return entity.Record{
		IsTracking:     s.TrackingEnabled,
		InactivityTime: s.ThresholdMinutes,
		TotalTime:      s.LifetimeSeconds,
	}
}
