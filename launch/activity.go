package launch

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	PollInterval = 1 * time.Second
	// une entrée clavier/souris plus récente que ActiveWindow compte comme activité
	ActiveWindow = 2 * time.Second
)

// IdleProbe donne le temps écoulé depuis la dernière entrée sur le bureau
type IdleProbe interface {
	IdleTime() (time.Duration, error)
}

type appScanner interface {
	Scan() (AppState, error)
}

type poster interface {
	Post(fn func()) bool
}

// ActivityMonitor remplace l'écoute des événements d'entrée de l'hôte.
// À chaque activité détectée, les callbacks en attente sont postés sur la
// boucle puis oubliés : il faut se réabonner pour la prochaine.
type ActivityMonitor struct {
	loop    poster
	clock   clockwork.Clock
	apps    appScanner
	probe   IdleProbe
	mu      sync.Mutex
	pending []func()
	state   AppState
	onClose func()
}

func NewActivityMonitor(loop poster, clock clockwork.Clock, apps appScanner, probe IdleProbe) *ActivityMonitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ActivityMonitor{
		loop:  loop,
		clock: clock,
		apps:  apps,
		probe: probe,
	}
}

func (m *ActivityMonitor) NextActivity(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, fn)
}

// OnAppClosed enregistre fn, posté sur la boucle quand la dernière
// application suivie se ferme. À appeler avant Run.
func (m *ActivityMonitor) OnAppClosed(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = fn
}

// Running indique si une application suivie tournait au dernier scan
func (m *ActivityMonitor) Running() bool {
	return m.AppState().Running
}

// AppState retourne le résultat du dernier scan
func (m *ActivityMonitor) AppState() AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ActivityMonitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.poll()
		case <-ctx.Done():
			return
		}
	}
}

func (m *ActivityMonitor) poll() {
	if !m.detect() {
		return
	}

	m.mu.Lock()
	fns := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, fn := range fns {
		m.loop.Post(fn)
	}
}

// detect : l'application suivie doit tourner, et l'utilisateur doit avoir
// touché au clavier ou à la souris récemment. Sans sonde d'inactivité, on se
// rabat sur la consommation CPU de l'application.
func (m *ActivityMonitor) detect() bool {
	state, err := m.apps.Scan()
	if err != nil {
		log.Debug().Err(err).Msg("process scan failed")
		return false
	}

	m.mu.Lock()
	wasRunning := m.state.Running
	m.state = state
	onClose := m.onClose
	m.mu.Unlock()

	if state.Running != wasRunning {
		log.Info().Bool("running", state.Running).Strs("apps", state.Names).Msg("watched application state changed")
		if wasRunning && onClose != nil {
			m.loop.Post(onClose)
		}
	}
	if !state.Running {
		return false
	}

	if m.probe != nil {
		idle, err := m.probe.IdleTime()
		if err == nil {
			return idle < ActiveWindow
		}
		log.Debug().Err(err).Msg("idle probe failed, using cpu activity")
	}
	return state.Busy
}
