package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DaySequence hands out per-scope counters that reset each calendar day.
// Document and order names embed these numbers.
type DaySequence struct {
	ID      int    `gorm:"primary_key"`
	Scope   string `gorm:"size:32;uniqueIndex:idx_day_sequence,priority:1;not null"`
	Day     string `gorm:"size:10;uniqueIndex:idx_day_sequence,priority:2;not null"`
	Counter int64  `gorm:"not null;default:0"`
}

// NextDaySequence atomically increments and returns the counter for the scope
// on the given day. The upsert with LAST_INSERT_ID makes the whole
// read-increment-write a single statement, so concurrent callers inside their
// own transactions never observe the same value.
func NextDaySequence(tx *gorm.DB, scope string, day time.Time) (int64, error) {
	dayKey := day.Format("2006-01-02")
	err := tx.Exec(
		"INSERT INTO day_sequences (scope, day, counter) VALUES (?, ?, 1) "+
			"ON DUPLICATE KEY UPDATE counter = LAST_INSERT_ID(counter + 1)",
		scope, dayKey,
	).Error
	if err != nil {
		return 0, fmt.Errorf("day sequence %s/%s: %w", scope, dayKey, err)
	}

	var counter int64
	err = tx.Raw(
		"SELECT counter FROM day_sequences WHERE scope = ? AND day = ?",
		scope, dayKey,
	).Scan(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("day sequence %s/%s: %w", scope, dayKey, err)
	}
	return counter, nil
}
