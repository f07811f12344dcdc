package query

import (
	"fmt"
	"time"
)

// SessionItem represents a single recorded session
type SessionItem struct {
	ID      string `db:"id" json:"id"`
	Date    string `db:"date" json:"date"`
	Start   string `db:"start_time" json:"start_time"`
	End     string `db:"end_time" json:"end_time"`
	Seconds int64  `db:"duration" json:"seconds"`
}

// DayTotal is the tracked time of one day
type DayTotal struct {
	Date     string `db:"date" json:"date"`
	Seconds  int64  `db:"seconds" json:"seconds"`
	Sessions int    `db:"sessions" json:"sessions"`
}

// Summary aggregates sessions between two inclusive dates
type Summary struct {
	Start    string     `json:"start"`
	End      string     `json:"end"`
	Seconds  int64      `json:"seconds"`
	Sessions int        `json:"sessions"`
	Days     []DayTotal `json:"days"`
}

// GetHistory returns the most recent sessions first. Sessions without any
// tracked second are skipped.
func (db *Database) GetHistory(limit int) ([]SessionItem, error) {
	if limit <= 0 {
		limit = 100
	}
	items := []SessionItem{}
	q := `
	SELECT id, date, start_time, end_time, duration
	FROM sessions
	WHERE duration > 0
	ORDER BY start_time DESC
	LIMIT ?`
	if err := db.Select(&items, q, limit); err != nil {
		return nil, fmt.Errorf("GetHistory: %w", err)
	}
	return items, nil
}

// GetDailyTotals returns per-day totals between inclusive dates (YYYY-MM-DD)
func (db *Database) GetDailyTotals(startDate, endDate string) ([]DayTotal, error) {
	rows := []DayTotal{}
	q := `
	SELECT date,
	       SUM(duration) AS seconds,
	       COUNT(*) AS sessions
	FROM sessions
	WHERE date >= ? AND date <= ? AND duration > 0
	GROUP BY date
	ORDER BY date`
	if err := db.Select(&rows, q, startDate, endDate); err != nil {
		return nil, fmt.Errorf("GetDailyTotals: %w", err)
	}
	return rows, nil
}

// GetSummaryBetween aggregates the daily totals of a range
func (db *Database) GetSummaryBetween(startDate, endDate string) (Summary, error) {
	days, err := db.GetDailyTotals(startDate, endDate)
	if err != nil {
		return Summary{}, fmt.Errorf("GetSummaryBetween: %w", err)
	}
	sum := Summary{Start: startDate, End: endDate, Days: days}
	for _, d := range days {
		sum.Seconds += d.Seconds
		sum.Sessions += d.Sessions
	}
	return sum, nil
}

// Period helpers
func PeriodRange(period string, now time.Time) (string, string) {
	nowDate := now.Format("2006-01-02")
	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -6) // include today + previous 6 days
	case "month":
		start = now.AddDate(0, -1, 1) // approximately last month inclusive
	case "year":
		start = now.AddDate(-1, 0, 1)
	default:
		start = now.AddDate(0, 0, -6)
	}
	return start.Format("2006-01-02"), nowDate
}
