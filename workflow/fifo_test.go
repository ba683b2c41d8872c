package workflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/warehouse_backend/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lot(id int, price, available string) models.Lot {
	return models.Lot{MovementId: id, Price: dec(price), Available: dec(available)}
}

func TestPlanFifoConsumptionSplitsAcrossLots(t *testing.T) {
	lots := []models.Lot{
		lot(1, "10", "100"),
		lot(2, "12", "50"),
	}

	parts := PlanFifoConsumption(lots, dec("120"), dec("99"))

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].LotId == nil || *parts[0].LotId != 1 {
		t.Fatalf("first part should consume lot 1, got %v", parts[0].LotId)
	}
	if !parts[0].Qty.Equal(dec("100")) || !parts[0].Price.Equal(dec("10")) {
		t.Fatalf("first part: want 100 @ 10, got %s @ %s", parts[0].Qty, parts[0].Price)
	}
	if parts[1].LotId == nil || *parts[1].LotId != 2 {
		t.Fatalf("second part should consume lot 2, got %v", parts[1].LotId)
	}
	if !parts[1].Qty.Equal(dec("20")) || !parts[1].Price.Equal(dec("12")) {
		t.Fatalf("second part: want 20 @ 12, got %s @ %s", parts[1].Qty, parts[1].Price)
	}
}

func TestPlanFifoConsumptionOversellWritesShortfallAtFallbackPrice(t *testing.T) {
	lots := []models.Lot{
		lot(1, "10", "30"),
	}

	parts := PlanFifoConsumption(lots, dec("50"), dec("7.50"))

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !parts[0].Qty.Equal(dec("30")) || !parts[0].Price.Equal(dec("10")) {
		t.Fatalf("lot part: want 30 @ 10, got %s @ %s", parts[0].Qty, parts[0].Price)
	}
	if parts[1].LotId != nil {
		t.Fatalf("shortfall part must not carry a lot id")
	}
	if !parts[1].Qty.Equal(dec("20")) || !parts[1].Price.Equal(dec("7.50")) {
		t.Fatalf("shortfall part: want 20 @ 7.50, got %s @ %s", parts[1].Qty, parts[1].Price)
	}
}

func TestPlanFifoConsumptionNoLotsIsAllShortfall(t *testing.T) {
	parts := PlanFifoConsumption(nil, dec("5"), dec("3"))

	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].LotId != nil {
		t.Fatalf("shortfall part must not carry a lot id")
	}
	if !parts[0].Qty.Equal(dec("5")) || !parts[0].Price.Equal(dec("3")) {
		t.Fatalf("want 5 @ 3, got %s @ %s", parts[0].Qty, parts[0].Price)
	}
}

func TestPlanFifoConsumptionExactDepletion(t *testing.T) {
	lots := []models.Lot{
		lot(1, "10", "40"),
		lot(2, "11", "60"),
	}

	parts := PlanFifoConsumption(lots, dec("100"), dec("99"))

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	total := parts[0].Qty.Add(parts[1].Qty)
	if !total.Equal(dec("100")) {
		t.Fatalf("parts must cover the full quantity, got %s", total)
	}
	for _, p := range parts {
		if p.LotId == nil {
			t.Fatalf("exact depletion must not produce a shortfall part")
		}
	}
}

func TestPlanFifoConsumptionFractionalQuantities(t *testing.T) {
	lots := []models.Lot{
		lot(1, "2.50", "0.750"),
		lot(2, "3.00", "1.000"),
	}

	parts := PlanFifoConsumption(lots, dec("1.125"), dec("5"))

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if !parts[0].Qty.Equal(dec("0.750")) {
		t.Fatalf("first part: want 0.750, got %s", parts[0].Qty)
	}
	if !parts[1].Qty.Equal(dec("0.375")) {
		t.Fatalf("second part: want 0.375, got %s", parts[1].Qty)
	}
}

func TestPlanFifoConsumptionSkipsLaterLotsWhenEarlierCover(t *testing.T) {
	lots := []models.Lot{
		lot(1, "10", "100"),
		lot(2, "12", "50"),
	}

	parts := PlanFifoConsumption(lots, dec("80"), dec("99"))

	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if *parts[0].LotId != 1 || !parts[0].Qty.Equal(dec("80")) {
		t.Fatalf("want 80 from lot 1, got %s from %v", parts[0].Qty, parts[0].LotId)
	}
}
