package tracker

import "fmt"

// PrettyTime formate un nombre de secondes de façon compacte :
// "Nh" à partir de 100 heures, "Nh Mm" à partir d'une heure, sinon "Mm Ss".
func PrettyTime(seconds int64) string {
	m, s := seconds/60, seconds%60
	h, m := m/60, m%60
	switch {
	case h > 99:
		return fmt.Sprintf("%dh", h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm %ds", m, s)
	}
}
