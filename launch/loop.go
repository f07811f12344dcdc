package launch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrLoopStopped = errors.New("loop stopped")

// Loop exécute les callbacks un par un sur une seule goroutine. C'est le
// « thread principal » de l'hôte : tout ce qui touche au tracker passe par
// là, il n'y a donc jamais deux callbacks en même temps.
type Loop struct {
	clock clockwork.Clock
	queue chan func()
	done  chan struct{}
}

func NewLoop(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run bloque jusqu'à l'annulation du contexte
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Done est fermé quand Run a rendu la main
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post ajoute fn à la file. Retourne false si la boucle est arrêtée.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call exécute fn sur la boucle et attend la fin. Ne jamais l'appeler
// depuis un callback de la boucle.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Every poste fn à chaque intervalle jusqu'à l'appel de stop
func (l *Loop) Every(interval time.Duration, fn func()) func() {
	ticker := l.clock.NewTicker(interval)
	stop := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if !l.Post(fn) {
					return
				}
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(stop) })
	}
}

// After poste fn une seule fois, après delay
func (l *Loop) After(delay time.Duration, fn func()) {
	l.clock.AfterFunc(delay, func() {
		l.Post(fn)
	})
}
