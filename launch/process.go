package launch

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/process"
)

// Temps CPU minimal (en secondes) consommé entre deux scans pour considérer
// que l'application travaille
const busyCPUSeconds = 0.05

// Matcher décide si un exécutable fait partie des applications suivies
type Matcher interface {
	Matches(path string) bool
}

// AppState est le résultat d'un scan des processus
type AppState struct {
	Running bool
	Busy    bool
	Names   []string
}

type procInfo struct {
	pid int32
	exe string
	cpu float64
}

type processLister func(match func(exe string) bool) ([]procInfo, error)

// AppWatcher repère les processus des applications suivies
type AppWatcher struct {
	lists Matcher
	list  processLister
	cpu   map[int32]float64
}

func NewAppWatcher(lists Matcher) *AppWatcher {
	return &AppWatcher{
		lists: lists,
		list:  listProcesses,
		cpu:   make(map[int32]float64),
	}
}

// Scan n'est pas sûr pour un usage concurrent, il est appelé par une seule
// goroutine de surveillance.
func (w *AppWatcher) Scan() (AppState, error) {
	procs, err := w.list(w.lists.Matches)
	if err != nil {
		return AppState{}, fmt.Errorf("Scan: %w", err)
	}

	var state AppState
	seen := make(map[int32]float64, len(procs))
	names := make(map[string]struct{})
	for _, p := range procs {
		state.Running = true
		names[filepath.Base(p.exe)] = struct{}{}
		if prev, ok := w.cpu[p.pid]; ok && p.cpu-prev >= busyCPUSeconds {
			state.Busy = true
		}
		seen[p.pid] = p.cpu
	}
	w.cpu = seen

	for name := range names {
		state.Names = append(state.Names, name)
	}
	sort.Strings(state.Names)
	return state, nil
}

func listProcesses(match func(exe string) bool) ([]procInfo, error) {
	processes, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var infos []procInfo
	for _, p := range processes {
		if p == nil {
			continue
		}
		exe, err := p.Exe()
		if err != nil || !match(exe) {
			continue
		}
		info := procInfo{pid: p.Pid, exe: exe}
		// p.CPUPercent() existe aussi mais dépend de l'intervalle d'appel
		if times, err := p.Times(); err == nil {
			info.cpu = times.User + times.System
		}
		infos = append(infos, info)
	}
	return infos, nil
}
