//go:build linux

package launch

import (
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// Interfaces D-Bus qui exposent le temps d'inactivité de la session.
// GNOME passe par Mutter, KDE par org.freedesktop.ScreenSaver.
type dbusIdleSource struct {
	dest   string
	path   dbus.ObjectPath
	method string
	// unité de la valeur retournée
	unit time.Duration
}

var dbusIdleSources = []dbusIdleSource{
	{
		dest:   "org.gnome.Mutter.IdleMonitor",
		path:   "/org/gnome/Mutter/IdleMonitor/Core",
		method: "org.gnome.Mutter.IdleMonitor.GetIdletime",
		unit:   time.Millisecond,
	},
	{
		dest:   "org.freedesktop.ScreenSaver",
		path:   "/org/freedesktop/ScreenSaver",
		method: "org.freedesktop.ScreenSaver.GetSessionIdleTime",
		unit:   time.Second,
	},
}

type dbusIdleProbe struct {
	conn   *dbus.Conn
	source dbusIdleSource
}

// NewIdleProbe retourne nil si aucune interface D-Bus ne répond
func NewIdleProbe() IdleProbe {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Info().Err(err).Msg("no session bus, idle detection falls back to cpu activity")
		return nil
	}

	for _, src := range dbusIdleSources {
		p := &dbusIdleProbe{conn: conn, source: src}
		if _, err := p.IdleTime(); err == nil {
			log.Info().Str("source", src.dest).Msg("using D-Bus idle monitor")
			return p
		}
	}

	conn.Close()
	log.Info().Msg("no D-Bus idle monitor, idle detection falls back to cpu activity")
	return nil
}

func (p *dbusIdleProbe) IdleTime() (time.Duration, error) {
	obj := p.conn.Object(p.source.dest, p.source.path)
	call := obj.Call(p.source.method, 0)
	if call.Err != nil {
		return 0, call.Err
	}

	if len(call.Body) != 1 {
		return 0, dbus.ErrMsgInvalidArg
	}
	// Mutter retourne un uint64, ScreenSaver un uint32
	switch v := call.Body[0].(type) {
	case uint64:
		return time.Duration(v) * p.source.unit, nil
	case uint32:
		return time.Duration(v) * p.source.unit, nil
	default:
		return 0, dbus.ErrMsgInvalidArg
	}
}
