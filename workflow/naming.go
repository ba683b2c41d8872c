package workflow

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/models"
)

// Document and order names embed a per-day sequence number taken from the
// day_sequences counter inside the owning transaction, so two same-day
// creations can never collide and deleting a document never frees its number.

func FormatDocumentName(docType models.DocumentType, day time.Time, sequence int64) string {
	return fmt.Sprintf("%s %s-%d", docType, day.Format("02.01"), sequence)
}

func FormatOrderName(day time.Time, sequence int64) string {
	return fmt.Sprintf("Заказ %s-%d", day.Format("02.01"), sequence)
}

func nextDocumentName(tx *gorm.DB, docType models.DocumentType, day time.Time) (string, error) {
	sequence, err := models.NextDaySequence(tx, "document:"+string(docType), day)
	if err != nil {
		return "", err
	}
	return FormatDocumentName(docType, day, sequence), nil
}

func nextOrderName(tx *gorm.DB, day time.Time) (string, error) {
	sequence, err := models.NextDaySequence(tx, "order", day)
	if err != nil {
		return "", err
	}
	return FormatOrderName(day, sequence), nil
}
