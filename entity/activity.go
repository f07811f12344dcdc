package entity

import "time"

// Record est le contenu du fichier JSON persistant.
// Les noms de champs sont ceux du format historique du fichier.
type Record struct {
	IsTracking     bool  `json:"is_tracking"`
	InactivityTime int   `json:"inactivity_time"`
	TotalTime      int64 `json:"total_time"`
}

// SessionRecord représente une session du démon, enregistrée dans l'historique
type SessionRecord struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	Seconds   int64
}

// Date retourne le jour de début de session, utilisé pour les agrégats journaliers
func (s SessionRecord) Date() string {
	return s.StartTime.Format("2006-01-02")
}
