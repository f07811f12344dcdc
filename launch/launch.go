package launch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"apptime/config"
	"apptime/manager"
	"apptime/query"
	"apptime/storage"
	"apptime/tracker"
	"apptime/web"

	"github.com/getlantern/systray"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// App assemble l'hôte : boucle, surveillance d'activité, tracker, base
// d'historique, interface web et icône de notification.
type App struct {
	cfg          *config.Instance
	clock        clockwork.Clock
	loop         *Loop
	activity     *ActivityMonitor
	tracker      *tracker.Tracker
	store        *storage.Store
	db           *query.Database
	lists        *manager.ListManager
	web          *web.Server
	stopAutosave func()
	ctx          context.Context
	cancel       context.CancelFunc
	stopped      chan struct{}
}

// StartProgramme démarre le suivi puis bloque dans la boucle de l'icône
// jusqu'à ce que l'utilisateur quitte.
func StartProgramme(cfg *config.Instance) error {
	app, err := NewApp(cfg, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	systray.Run(app.onReady, app.Stop)
	return nil
}

// NewApp ouvre les données et démarre le tracker. Si le fichier de données
// est illisible, l'erreur remonte et rien n'est démarré.
func NewApp(cfg *config.Instance, clock clockwork.Clock) (*App, error) {
	dataDir := cfg.DataDir()
	db, err := query.InitDatabase(dataDir)
	if err != nil {
		return nil, fmt.Errorf("NewApp: %w", err)
	}

	lists, err := manager.NewListManager(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("NewApp: %w", err)
	}
	if err := lists.Seed(cfg.WatchedApps(), cfg.IgnoredApps()); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewApp: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		cfg:     cfg,
		clock:   clock,
		loop:    NewLoop(clock),
		store:   storage.NewOS(dataDir),
		db:      db,
		lists:   lists,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	app.activity = NewActivityMonitor(app.loop, clock, NewAppWatcher(lists), NewIdleProbe())

	enabled, minutes := cfg.TrackingDefaults()
	app.tracker = wireTracker(app.loop, app.activity, tracker.Options{
		Settings: tracker.Settings{TrackingEnabled: enabled, ThresholdMinutes: minutes},
		Store:    app.store,
		History:  db,
		Clock:    clock,
		DataDir:  app.store.Dir(),
	})

	go app.loop.Run(ctx)

	if err := startTracker(ctx, app.loop, app.activity, app.tracker); err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("NewApp: %w", err)
	}

	go app.activity.Run(ctx)
	app.stopAutosave = app.loop.Every(cfg.AutosaveInterval(), func() {
		// l'erreur est déjà loguée par le tracker
		_ = app.tracker.Save()
	})

	if cfg.WebEnabled() {
		app.web = web.NewServer(app, db, lists)
		if err := app.web.Start(cfg.WebAddress()); err != nil {
			log.Error().Err(err).Msg("could not start web UI")
			app.web = nil
		}
	}

	log.Info().Str("data", app.store.Path()).Msg("apptime started")
	return app, nil
}

// Stop fait la dernière sauvegarde puis arrête tout. Appelé une seule fois,
// à la sortie de l'icône.
func (a *App) Stop() {
	select {
	case <-a.stopped:
		return
	default:
		close(a.stopped)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.web != nil {
		if err := a.web.Shutdown(ctx); err != nil {
			log.Debug().Err(err).Msg("web shutdown")
		}
	}
	a.stopAutosave()
	if err := a.loop.Call(ctx, a.tracker.Shutdown); err != nil {
		log.Debug().Err(err).Msg("shutdown save skipped")
	}
	a.cancel()
	<-a.loop.Done()
	if err := a.db.Close(); err != nil {
		log.Debug().Err(err).Msg("closing database")
	}
	log.Info().Msg("apptime stopped")
}

// Les méthodes suivantes exécutent les opérations du tracker sur la boucle,
// elles servent à l'interface web et au menu.

func (a *App) Status(ctx context.Context) (web.Status, error) {
	ts, err := callResult(ctx, a.loop, a.tracker.Status)
	if err != nil {
		return web.Status{}, err
	}
	apps := a.activity.AppState()
	st := web.Status{Status: ts, AppRunning: apps.Running, Apps: apps.Names}
	// sans application ouverte, rien ne s'accumule
	st.Paused = st.Paused || !apps.Running
	return st, nil
}

func (a *App) SetTracking(ctx context.Context, enabled bool) error {
	return a.loop.Call(ctx, func() { a.tracker.SetTracking(enabled) })
}

func (a *App) SetThreshold(ctx context.Context, minutes int) error {
	return callErr(ctx, a.loop, func() error { return a.tracker.SetThreshold(minutes) })
}

func (a *App) Save(ctx context.Context) error {
	return callErr(ctx, a.loop, a.tracker.Save)
}

func (a *App) onReady() {
	// Définir l'icône de l'application si elle est livrée à côté de l'exécutable
	if exe, err := os.Executable(); err == nil {
		if icon, err := os.ReadFile(filepath.Join(filepath.Dir(exe), "icon.ico")); err == nil {
			systray.SetIcon(icon)
		}
	}
	systray.SetTitle("apptime")
	systray.SetTooltip("Temps passé dans vos applications")

	st, _ := a.Status(a.ctx)

	mTotal := systray.AddMenuItem("Total time: "+st.LifetimePretty, "")
	mTotal.Disable()
	mSession := systray.AddMenuItem("Session time: "+st.SessionPretty, "")
	mSession.Disable()
	systray.AddSeparator()

	mTracking := systray.AddMenuItemCheckbox("Enable time tracking", "Activates global time tracking", st.Tracking)
	mFolder := systray.AddMenuItem("Show data in File Explorer", "Ouvrir le dossier des données")
	mSave := systray.AddMenuItem("Save now", "Sauvegarder les totaux")
	mWeb := systray.AddMenuItem("Open web UI", "Ouvrir l'interface web dans le navigateur")
	if a.web == nil {
		mWeb.Hide()
	}
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quitter l'application")

	// Rafraîchir les libellés chaque seconde
	go func() {
		ticker := a.clock.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				st, err := a.Status(a.ctx)
				if err != nil {
					continue
				}
				mTotal.SetTitle("Total time: " + st.LifetimePretty)
				mSession.SetTitle("Session time: " + st.SessionPretty)
				if st.Tracking != mTracking.Checked() {
					setChecked(mTracking, st.Tracking)
				}
				tooltip := "Total " + st.LifetimePretty
				if st.Paused {
					tooltip += " (en pause)"
				}
				systray.SetTooltip(tooltip)
			case <-a.ctx.Done():
				return
			}
		}
	}()

	// Gérer les clics sur les éléments de menu
	go func() {
		for {
			select {
			case <-mTracking.ClickedCh:
				enabled := !mTracking.Checked()
				if err := a.SetTracking(a.ctx, enabled); err != nil {
					log.Error().Err(err).Msg("could not toggle tracking")
					continue
				}
				setChecked(mTracking, enabled)
			case <-mFolder.ClickedCh:
				if err := openPath(a.store.Dir()); err != nil {
					log.Error().Err(err).Msg("failed to open data dir")
				}
			case <-mSave.ClickedCh:
				if err := a.Save(a.ctx); err != nil {
					log.Error().Err(err).Msg("manual save failed")
				}
			case <-mWeb.ClickedCh:
				if err := openPath("http://" + a.cfg.WebAddress()); err != nil {
					log.Error().Err(err).Msg("failed to open web page")
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}
