package tracker

import (
	"fmt"
	"time"

	"apptime/entity"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	TickInterval = 1 * time.Second
	RearmDelay   = 15 * time.Second
)

// Scheduler est la partie de l'hôte qui planifie les callbacks.
// Les callbacks ne se chevauchent jamais.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
	After(delay time.Duration, fn func())
}

// InputEvents appelle fn une seule fois, lors de la prochaine activité de l'utilisateur
type InputEvents interface {
	NextActivity(fn func())
}

type RecordStore interface {
	Load() (entity.Record, bool, error)
	Save(rec entity.Record) (entity.Record, error)
}

// SessionRecorder reçoit la session courante à chaque sauvegarde
type SessionRecorder interface {
	RecordSession(rec entity.SessionRecord) error
}

type Options struct {
	Settings  Settings
	Store     RecordStore
	Scheduler Scheduler
	Input     InputEvents
	History   SessionRecorder
	Clock     clockwork.Clock
	DataDir   string
}

// Tracker relie l'état aux collaborateurs de l'hôte : chargement, tick,
// surveillance de l'activité et sauvegarde.
type Tracker struct {
	state    *State
	store    RecordStore
	sched    Scheduler
	input    InputEvents
	history  SessionRecorder
	clock    clockwork.Clock
	dataDir  string
	session  entity.SessionRecord
	lastSave time.Time
	stopTick func()
	started  bool
	stopped  bool
}

func New(opts Options) *Tracker {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	settings := opts.Settings
	if settings.ThresholdMinutes < MinThresholdMinutes {
		settings.ThresholdMinutes = DefaultThresholdMinutes
	}
	return &Tracker{
		state:   NewState(settings),
		store:   opts.Store,
		sched:   opts.Scheduler,
		input:   opts.Input,
		history: opts.History,
		clock:   clock,
		dataDir: opts.DataDir,
		session: entity.SessionRecord{
			ID:        uuid.NewString(),
			StartTime: clock.Now(),
		},
	}
}

// Start charge le fichier, fait la fusion initiale puis enregistre le tick
// et le chien de garde. Une erreur de lecture interrompt l'initialisation :
// on ne repart jamais de zéro en écrasant le total de l'utilisateur.
func (t *Tracker) Start() error {
	if t.started {
		return nil
	}

	rec, found, err := t.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("could not load time data")
		return fmt.Errorf("Start: %w", err)
	}
	if found {
		t.state.Apply(rec)
	}
	t.state.ResetCountdown()

	if err := t.save(); err != nil {
		return fmt.Errorf("Start: %w", err)
	}

	t.started = true
	t.stopTick = t.sched.Every(TickInterval, t.tick)
	t.armWatchdog()

	log.Info().
		Int64("lifetime", t.state.LifetimeSeconds).
		Bool("tracking", t.state.TrackingEnabled).
		Int("threshold_minutes", t.state.ThresholdMinutes).
		Msg("time tracking started")
	return nil
}

func (t *Tracker) tick() {
	if t.stopped {
		return
	}
	t.state.Tick()
}

// Save fusionne le total avec celui du disque (le plus grand gagne) et
// réécrit le fichier. Après Shutdown, le fichier n'est plus touché.
func (t *Tracker) Save() error {
	if t.stopped {
		log.Debug().Msg("tracker stopped, save skipped")
		return nil
	}
	return t.save()
}

func (t *Tracker) save() error {
	merged, err := t.store.Save(t.state.Record())
	if err != nil {
		log.Error().Err(err).Msg("could not save time data")
		return fmt.Errorf("Save: %w", err)
	}
	if merged.TotalTime > t.state.LifetimeSeconds {
		log.Info().
			Int64("memory", t.state.LifetimeSeconds).
			Int64("disk", merged.TotalTime).
			Msg("stored total is ahead of memory, keeping it")
		t.state.LifetimeSeconds = merged.TotalTime
	}
	t.lastSave = t.clock.Now()
	t.recordSession()
	return nil
}

func (t *Tracker) recordSession() {
	if t.history == nil {
		return
	}
	t.session.EndTime = t.clock.Now()
	t.session.Seconds = t.state.SessionSeconds
	if err := t.history.RecordSession(t.session); err != nil {
		log.Warn().Err(err).Msg("could not record session history")
	}
}

// Shutdown arrête le tick et tente une dernière sauvegarde. Une erreur ici
// est ignorée pour ne pas bloquer l'arrêt.
func (t *Tracker) Shutdown() {
	t.stopped = true
	if t.stopTick != nil {
		t.stopTick()
		t.stopTick = nil
	}
	if !t.started {
		return
	}
	if err := t.save(); err != nil {
		log.Debug().Err(err).Msg("ignoring save error at shutdown")
	}
}

// Pause coupe le compte à rebours, par exemple quand l'application suivie
// vient d'être fermée. La prochaine activité le réarme.
func (t *Tracker) Pause() {
	if t.stopped {
		return
	}
	t.state.Pause()
}

func (t *Tracker) SetTracking(enabled bool) {
	t.state.SetTracking(enabled)
	log.Info().Bool("tracking", enabled).Msg("tracking toggled")
}

func (t *Tracker) SetThreshold(minutes int) error {
	if err := t.state.SetThreshold(minutes); err != nil {
		return err
	}
	log.Info().Int("threshold_minutes", minutes).Msg("inactivity threshold changed")
	return nil
}

// Status est une copie de l'état destinée à l'affichage
type Status struct {
	Lifetime         int64  `json:"lifetime_seconds"`
	Session          int64  `json:"session_seconds"`
	LifetimePretty   string `json:"lifetime"`
	SessionPretty    string `json:"session"`
	Countdown        int64  `json:"inactivity_countdown_seconds"`
	Tracking         bool   `json:"tracking"`
	ThresholdMinutes int    `json:"inactivity_minutes"`
	Paused           bool   `json:"paused"`
	DataDir          string `json:"data_dir"`
	LastSaved        string `json:"last_saved,omitempty"`
}

func (t *Tracker) Status() Status {
	st := Status{
		Lifetime:         t.state.LifetimeSeconds,
		Session:          t.state.SessionSeconds,
		LifetimePretty:   PrettyTime(t.state.LifetimeSeconds),
		SessionPretty:    PrettyTime(t.state.SessionSeconds),
		Countdown:        t.state.CountdownSeconds,
		Tracking:         t.state.TrackingEnabled,
		ThresholdMinutes: t.state.ThresholdMinutes,
		Paused:           !t.state.TrackingEnabled || t.state.CountdownSeconds == 0,
		DataDir:          t.dataDir,
	}
	if !t.lastSave.IsZero() {
		st.LastSaved = humanize.RelTime(t.lastSave, t.clock.Now(), "ago", "from now")
	}
	return st
}
