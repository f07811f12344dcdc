package tracker

// armWatchdog attend la prochaine activité. Chaque activité réarme le compte
// à rebours puis relance l'écoute après RearmDelay, tant que le tracker
// n'est pas arrêté.
func (t *Tracker) armWatchdog() {
	if t.stopped {
		return
	}
	t.input.NextActivity(t.onActivity)
}

func (t *Tracker) onActivity() {
	if t.stopped {
		return
	}
	t.state.ResetCountdown()
	t.sched.After(RearmDelay, t.armWatchdog)
}
