package tracker

import (
	"errors"
	"testing"
	"time"

	"apptime/entity"
	"apptime/storage"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordPath = "/data/time.json"

// fakeHost joue le rôle de l'hôte : les callbacks sont déclenchés à la main
type fakeHost struct {
	every     []func()
	stopped   int
	delayed   []func()
	delays    []time.Duration
	listeners []func()
}

func (h *fakeHost) Every(_ time.Duration, fn func()) func() {
	h.every = append(h.every, fn)
	return func() { h.stopped++ }
}

func (h *fakeHost) After(delay time.Duration, fn func()) {
	h.delays = append(h.delays, delay)
	h.delayed = append(h.delayed, fn)
}

func (h *fakeHost) NextActivity(fn func()) {
	h.listeners = append(h.listeners, fn)
}

func (h *fakeHost) tick(n int) {
	for i := 0; i < n; i++ {
		for _, fn := range h.every {
			fn()
		}
	}
}

// activity déclenche les écouteurs en attente, comme un événement clavier
func (h *fakeHost) activity() {
	ls := h.listeners
	h.listeners = nil
	for _, fn := range ls {
		fn()
	}
}

func (h *fakeHost) runDelayed() {
	ds := h.delayed
	h.delayed = nil
	for _, fn := range ds {
		fn()
	}
}

type fakeHistory struct {
	sessions []entity.SessionRecord
	err      error
}

func (f *fakeHistory) RecordSession(rec entity.SessionRecord) error {
	f.sessions = append(f.sessions, rec)
	return f.err
}

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) Load() (entity.Record, bool, error) {
	return entity.Record{}, false, f.loadErr
}

func (f failingStore) Save(rec entity.Record) (entity.Record, error) {
	return rec, f.saveErr
}

func newTestTracker(t *testing.T, fs afero.Fs) (*Tracker, *fakeHost, *fakeHistory) {
	t.Helper()
	host := &fakeHost{}
	history := &fakeHistory{}
	tr := New(Options{
		Settings:  DefaultSettings(),
		Store:     storage.New(fs, recordPath),
		Scheduler: host,
		Input:     host,
		History:   history,
		Clock:     clockwork.NewFakeClock(),
		DataDir:   "/data",
	})
	return tr, host, history
}

func TestStartWithoutRecord(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())

	assert.Len(t, host.every, 1)
	assert.Len(t, host.listeners, 1)
	assert.Equal(t, int64(DefaultThresholdMinutes*60), tr.state.CountdownSeconds)

	data, err := afero.ReadFile(fs, recordPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_tracking": true, "inactivity_time": 20, "total_time": 0}`, string(data))
}

func TestStartAppliesStoredRecord(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, recordPath,
		[]byte(`{"is_tracking": true, "inactivity_time": 2, "total_time": 3600}`), 0o644))

	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())

	assert.Equal(t, int64(120), tr.state.CountdownSeconds)
	host.tick(10)

	st := tr.Status()
	assert.Equal(t, int64(3610), st.Lifetime)
	assert.Equal(t, int64(10), st.Session)
	assert.Equal(t, "1h 0m", st.LifetimePretty)
	assert.Equal(t, "0m 10s", st.SessionPretty)
	assert.False(t, st.Paused)
}

func TestStartFailsOnMalformedRecord(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, recordPath, []byte(`{"total_time":`), 0o644))

	tr, host, _ := newTestTracker(t, fs)
	err := tr.Start()
	require.ErrorIs(t, err, storage.ErrMalformedRecord)

	assert.Empty(t, host.every)
	assert.Empty(t, host.listeners)

	data, err := afero.ReadFile(fs, recordPath)
	require.NoError(t, err)
	assert.Equal(t, `{"total_time":`, string(data))
}

func TestWatchdogRearms(t *testing.T) {
	t.Parallel()

	tr, host, _ := newTestTracker(t, afero.NewMemMapFs())
	require.NoError(t, tr.SetThreshold(1))
	require.NoError(t, tr.Start())

	host.tick(60)
	assert.Zero(t, tr.state.CountdownSeconds)
	assert.True(t, tr.Status().Paused)

	host.tick(5)
	assert.Equal(t, int64(60), tr.state.SessionSeconds)

	host.activity()
	assert.Equal(t, int64(60), tr.state.CountdownSeconds)
	assert.Empty(t, host.listeners)
	require.Equal(t, []time.Duration{RearmDelay}, host.delays)

	// pas d'écoute tant que le délai n'est pas écoulé
	host.activity()
	assert.Empty(t, host.listeners)

	host.runDelayed()
	assert.Len(t, host.listeners, 1)

	host.tick(3)
	assert.Equal(t, int64(63), tr.state.SessionSeconds)
}

func TestTrackingDisabled(t *testing.T) {
	t.Parallel()

	tr, host, _ := newTestTracker(t, afero.NewMemMapFs())
	require.NoError(t, tr.Start())
	tr.SetTracking(false)

	host.tick(50)
	assert.Zero(t, tr.state.SessionSeconds)
	assert.Zero(t, tr.state.LifetimeSeconds)
	assert.True(t, tr.Status().Paused)
}

func TestSaveIsMonotonic(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, history := newTestTracker(t, fs)
	require.NoError(t, tr.Start())
	host.tick(42)

	require.NoError(t, tr.Save())
	require.NoError(t, tr.Save())
	assert.Equal(t, int64(42), tr.state.LifetimeSeconds)

	// un autre processus a écrit un total plus grand
	require.NoError(t, afero.WriteFile(fs, recordPath,
		[]byte(`{"is_tracking": true, "inactivity_time": 20, "total_time": 10000}`), 0o644))
	require.NoError(t, tr.Save())
	assert.Equal(t, int64(10000), tr.state.LifetimeSeconds)

	data, err := afero.ReadFile(fs, recordPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_tracking": true, "inactivity_time": 20, "total_time": 10000}`, string(data))

	require.NotEmpty(t, history.sessions)
	last := history.sessions[len(history.sessions)-1]
	assert.Equal(t, int64(42), last.Seconds)
	assert.NotEmpty(t, last.ID)
	assert.NotEmpty(t, tr.Status().LastSaved)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())
	tr.SetTracking(false)
	require.NoError(t, tr.SetThreshold(9))
	tr.SetTracking(true)
	host.tick(15)
	require.NoError(t, tr.Save())

	again, _, _ := newTestTracker(t, fs)
	require.NoError(t, again.Start())
	assert.Equal(t, tr.state.Settings, again.state.Settings)
	assert.GreaterOrEqual(t, again.state.LifetimeSeconds, int64(15))
	assert.Zero(t, again.state.SessionSeconds)
}

func TestSaveErrorIsReturned(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	tr := New(Options{
		Store:     failingStore{saveErr: saveErr},
		Scheduler: &fakeHost{},
		Input:     &fakeHost{},
	})
	require.ErrorIs(t, tr.Start(), saveErr)
	require.ErrorIs(t, tr.Save(), saveErr)
}

func TestShutdownIgnoresSaveError(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())
	host.tick(5)

	require.NoError(t, afero.WriteFile(fs, recordPath, []byte(`corrupted`), 0o644))
	assert.NotPanics(t, tr.Shutdown)
	assert.Equal(t, 1, host.stopped)

	// plus rien ne bouge après l'arrêt
	host.tick(5)
	host.activity()
	assert.Equal(t, int64(5), tr.state.SessionSeconds)
	assert.Empty(t, host.delayed)
}

func TestShutdownSavesTotal(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())
	host.tick(8)
	tr.Shutdown()

	data, err := afero.ReadFile(fs, recordPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_tracking": true, "inactivity_time": 20, "total_time": 8}`, string(data))
}

func TestHistoryErrorDoesNotFailSave(t *testing.T) {
	t.Parallel()

	tr, _, history := newTestTracker(t, afero.NewMemMapFs())
	history.err = errors.New("db locked")
	require.NoError(t, tr.Start())
	require.NoError(t, tr.Save())
}

func TestSaveAfterShutdownLeavesFileAlone(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tr, host, _ := newTestTracker(t, fs)
	require.NoError(t, tr.Start())
	host.tick(4)
	tr.Shutdown()

	require.NoError(t, afero.WriteFile(fs, recordPath,
		[]byte(`{"is_tracking": false, "inactivity_time": 5, "total_time": 1}`), 0o644))
	require.NoError(t, tr.Save())

	data, err := afero.ReadFile(fs, recordPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_tracking": false, "inactivity_time": 5, "total_time": 1}`, string(data))
}

func TestPauseStopsAccumulation(t *testing.T) {
	t.Parallel()

	tr, host, _ := newTestTracker(t, afero.NewMemMapFs())
	require.NoError(t, tr.Start())
	host.tick(3)

	tr.Pause()
	assert.True(t, tr.Status().Paused)
	host.tick(10)
	assert.Equal(t, int64(3), tr.state.SessionSeconds)

	host.activity()
	host.tick(2)
	assert.Equal(t, int64(5), tr.state.SessionSeconds)
}
