package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/warehouse_backend/models"
)

func TestFormatDocumentName(t *testing.T) {
	day := time.Date(2025, time.March, 7, 15, 4, 5, 0, time.UTC)

	got := FormatDocumentName(models.DocumentTypeReceipt, day, 1)
	if got != "Receipt 07.03-1" {
		t.Fatalf("want %q, got %q", "Receipt 07.03-1", got)
	}
	got = FormatDocumentName(models.DocumentTypeWriteOff, day, 12)
	if got != "WriteOff 07.03-12" {
		t.Fatalf("want %q, got %q", "WriteOff 07.03-12", got)
	}
}

func TestFormatOrderName(t *testing.T) {
	day := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	got := FormatOrderName(day, 3)
	if got != "Заказ 31.12-3" {
		t.Fatalf("want %q, got %q", "Заказ 31.12-3", got)
	}
}
