package query

import (
	"github.com/jmoiron/sqlx"
)

// Database regroupe toutes les requêtes sur la base d'historique
type Database struct {
	*sqlx.DB
}

func NewDatabase(db *sqlx.DB) *Database {
	return &Database{DB: db}
}
