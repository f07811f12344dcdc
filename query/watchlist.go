package query

import "fmt"

const (
	TableWatched = "watched_apps"
	TableIgnored = "ignored_apps"
)

// Watched applications

func (db *Database) InsertWatched(name string) error {
	return db.insertName(TableWatched, name)
}

func (db *Database) DeleteFromWatched(name string) error {
	return db.deleteName(TableWatched, name)
}

func (db *Database) GetAllWatched() ([]string, error) {
	return db.allNames(TableWatched)
}

// Ignored applications

func (db *Database) InsertIgnored(name string) error {
	return db.insertName(TableIgnored, name)
}

func (db *Database) DeleteFromIgnored(name string) error {
	return db.deleteName(TableIgnored, name)
}

func (db *Database) GetAllIgnored() ([]string, error) {
	return db.allNames(TableIgnored)
}

// table is always one of the constants above, never user input
func (db *Database) insertName(table, name string) error {
	_, err := db.Exec("INSERT OR IGNORE INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (db *Database) deleteName(table, name string) error {
	_, err := db.Exec("DELETE FROM "+table+" WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func (db *Database) allNames(table string) ([]string, error) {
	names := []string{}
	err := db.Select(&names, "SELECT name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return names, nil
}
