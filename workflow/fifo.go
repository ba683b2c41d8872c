package workflow

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/models"
)

// FifoConsumption is one planned OUT row. LotId is nil for the shortfall part
// written when the open lots do not cover the requested quantity.
type FifoConsumption struct {
	LotId *int
	Qty   decimal.Decimal
	Price decimal.Decimal
}

// PlanFifoConsumption splits a requested write-off quantity across open lots,
// oldest first, each part priced at its lot's receipt price. Whatever the lots
// cannot cover becomes a final part at fallbackPrice with no lot, so negative
// stock is representable rather than rejected.
//
// Pure over its inputs; the lot slice must already be ordered oldest first.
func PlanFifoConsumption(lots []models.Lot, qty decimal.Decimal, fallbackPrice decimal.Decimal) []FifoConsumption {
	parts := make([]FifoConsumption, 0, 2)
	remaining := qty
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, lot.Available)
		if !take.IsPositive() {
			continue
		}
		lotId := lot.MovementId
		parts = append(parts, FifoConsumption{
			LotId: &lotId,
			Qty:   take,
			Price: lot.Price,
		})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		parts = append(parts, FifoConsumption{
			Qty:   remaining,
			Price: fallbackPrice,
		})
	}
	return parts
}

// ConsumeFifo writes the OUT movements for one write-off line. The caller must
// hold the product's posting lock; the lot rows themselves are read FOR UPDATE
// inside LoadOpenLots.
func ConsumeFifo(tx *gorm.DB, productId int, warehouseId int, qty decimal.Decimal, fallbackPrice decimal.Decimal,
	refType models.MovementReferenceType, documentId int, correlationId string) ([]models.InventoryMovement, error) {

	lots, err := models.LoadOpenLots(tx, productId)
	if err != nil {
		return nil, err
	}

	written := make([]models.InventoryMovement, 0, 2)
	for _, part := range PlanFifoConsumption(lots, qty, fallbackPrice) {
		movement := models.InventoryMovement{
			ProductId:     productId,
			WarehouseId:   warehouseId,
			Qty:           part.Qty.Neg(),
			Price:         part.Price,
			MovementType:  models.MovementTypeOut,
			ReferenceType: refType,
			DocumentId:    documentId,
			LotId:         part.LotId,
			CorrelationId: correlationId,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return nil, err
		}
		written = append(written, movement)
	}
	return written, nil
}

// receiveIntoStock writes the single IN movement for one receipt line.
func receiveIntoStock(tx *gorm.DB, productId int, warehouseId int, qty decimal.Decimal, price decimal.Decimal,
	refType models.MovementReferenceType, documentId int, correlationId string) (*models.InventoryMovement, error) {

	movement := models.InventoryMovement{
		ProductId:     productId,
		WarehouseId:   warehouseId,
		Qty:           qty,
		Price:         price,
		MovementType:  models.MovementTypeIn,
		ReferenceType: refType,
		DocumentId:    documentId,
		CorrelationId: correlationId,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}
