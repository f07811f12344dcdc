package launch

import (
	"context"
	"time"

	"apptime/tracker"
)

// appScheduler ne laisse passer les ticks que lorsqu'une application suivie
// est ouverte : sans elle, c'est comme si l'hôte n'était pas lancé.
type appScheduler struct {
	base    tracker.Scheduler
	running func() bool
}

func (s appScheduler) Every(interval time.Duration, fn func()) func() {
	return s.base.Every(interval, func() {
		if s.running() {
			fn()
		}
	})
}

func (s appScheduler) After(delay time.Duration, fn func()) {
	s.base.After(delay, fn)
}

// wireTracker branche le tracker sur la boucle et la surveillance
// d'activité. La fermeture de l'application suivie coupe le compte à rebours.
func wireTracker(base tracker.Scheduler, activity *ActivityMonitor, opts tracker.Options) *tracker.Tracker {
	opts.Scheduler = appScheduler{base: base, running: activity.Running}
	opts.Input = activity
	tr := tracker.New(opts)
	activity.OnAppClosed(tr.Pause)
	return tr
}

// startTracker démarre le tracker sur la boucle. Si aucune application
// suivie n'est ouverte, le compte à rebours reste vide jusqu'à la première
// activité.
func startTracker(ctx context.Context, loop *Loop, activity *ActivityMonitor, tr *tracker.Tracker) error {
	activity.detect()
	return callErr(ctx, loop, func() error {
		if err := tr.Start(); err != nil {
			return err
		}
		if !activity.Running() {
			tr.Pause()
		}
		return nil
	})
}

// callResult exécute fn sur la boucle. Le résultat passe par un canal
// tamponné : si ctx expire avant, fn peut encore tourner sans que personne
// ne lise ce qu'elle écrit.
func callResult[T any](ctx context.Context, loop *Loop, fn func() T) (T, error) {
	res := make(chan T, 1)
	if err := loop.Call(ctx, func() { res <- fn() }); err != nil {
		var zero T
		return zero, err
	}
	return <-res, nil
}

func callErr(ctx context.Context, loop *Loop, fn func() error) error {
	err, cerr := callResult(ctx, loop, fn)
	if cerr != nil {
		return cerr
	}
	return err
}
