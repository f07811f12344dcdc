//go:build !linux

package launch

// NewIdleProbe : pas de sonde d'inactivité hors Linux pour l'instant,
// l'activité est déduite de la consommation CPU de l'application.
func NewIdleProbe() IdleProbe {
	return nil
}
