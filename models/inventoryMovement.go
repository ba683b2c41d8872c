package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryMovement is the append-only stock ledger. Quantity-on-hand for a
// product is always the signed sum of its movements; no "current stock" column
// exists anywhere. Rows are inserted or deleted as part of their owning
// document's unit of work, never updated.
type InventoryMovement struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	ProductId     int                   `gorm:"index:idx_movement_product_date,priority:1;not null" json:"product_id"`
	WarehouseId   int                   `gorm:"index;not null" json:"warehouse_id"`
	Qty           decimal.Decimal       `gorm:"type:decimal(20,3);not null" json:"quantity"`
	Price         decimal.Decimal       `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	MovementType  MovementType          `gorm:"type:enum('IN','OUT');not null" json:"movement_type"`
	ReferenceType MovementReferenceType `gorm:"type:enum('DOC','SHP');not null;default:'DOC'" json:"reference_type"`
	DocumentId    int                   `gorm:"index;not null" json:"document_id"`
	// LotId points an OUT movement at the IN movement it consumed, so that a
	// lot's remaining quantity is derivable. NULL for shortfall write-offs.
	LotId         *int      `gorm:"index" json:"lot_id"`
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"index:idx_movement_product_date,priority:2;autoCreateTime" json:"created_at"`
}

// BeforeSave enforces ledger invariants.
//
// FIFO queries classify rows by MovementType; a row whose sign disagrees with
// its type would make lots appear (or vanish) incorrectly. Keep type and sign
// in lockstep for every non-zero quantity.
func (m *InventoryMovement) BeforeSave(*gorm.DB) error {
	if m == nil {
		return nil
	}
	if m.Qty.IsZero() {
		return nil
	}
	if m.Qty.IsNegative() {
		m.MovementType = MovementTypeOut
	} else {
		m.MovementType = MovementTypeIn
	}
	return nil
}

// QuantityOnHand returns the signed sum of all movements for the product,
// optionally narrowed to one warehouse. This is the only sanctioned way to
// read a stock level.
func QuantityOnHand(tx *gorm.DB, productId int, warehouseId *int) (decimal.Decimal, error) {
	var qty decimal.Decimal
	dbCtx := tx.Model(&InventoryMovement{}).
		Where("product_id = ?", productId)
	if warehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	err := dbCtx.Select("COALESCE(SUM(qty), 0)").Scan(&qty).Error
	if err != nil {
		return decimal.Zero, err
	}
	return qty, nil
}

// ReservedQuantity returns the total open reserve quantity for the product.
func ReservedQuantity(tx *gorm.DB, productId int, warehouseId *int) (decimal.Decimal, error) {
	var qty decimal.Decimal
	dbCtx := tx.Model(&Reserve{}).
		Where("product_id = ?", productId)
	if warehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	err := dbCtx.Select("COALESCE(SUM(qty), 0)").Scan(&qty).Error
	if err != nil {
		return decimal.Zero, err
	}
	return qty, nil
}

// Lot is an IN movement viewed as a depletable batch for FIFO costing.
type Lot struct {
	MovementId int
	Price      decimal.Decimal
	Available  decimal.Decimal
}

// LoadOpenLots loads the product's IN movements with positive remaining
// quantity, oldest first (ties broken by row id). The rows are read FOR UPDATE
// so concurrent write-offs of the same product serialize on them.
func LoadOpenLots(tx *gorm.DB, productId int) ([]Lot, error) {
	var inRows []InventoryMovement
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND movement_type = ?", productId, MovementTypeIn).
		Order("created_at ASC, id ASC").
		Find(&inRows).Error
	if err != nil {
		return nil, err
	}
	if len(inRows) == 0 {
		return []Lot{}, nil
	}

	type consumedRow struct {
		LotId int
		Qty   decimal.Decimal
	}
	var consumedRows []consumedRow
	err = tx.Model(&InventoryMovement{}).
		Select("lot_id, COALESCE(SUM(-qty), 0) AS qty").
		Where("product_id = ? AND movement_type = ? AND lot_id IS NOT NULL", productId, MovementTypeOut).
		Group("lot_id").
		Scan(&consumedRows).Error
	if err != nil {
		return nil, err
	}
	consumed := make(map[int]decimal.Decimal, len(consumedRows))
	for _, row := range consumedRows {
		consumed[row.LotId] = row.Qty
	}

	lots := make([]Lot, 0, len(inRows))
	for _, in := range inRows {
		available := in.Qty.Sub(consumed[in.ID])
		if !available.IsPositive() {
			continue
		}
		lots = append(lots, Lot{
			MovementId: in.ID,
			Price:      in.Price,
			Available:  available,
		})
	}
	return lots, nil
}

// DeleteMovementsFor removes every ledger row written by the given reference,
// returning the number of rows removed. Used when a document is reversed,
// replaced, or unposted.
func DeleteMovementsFor(tx *gorm.DB, refType MovementReferenceType, documentId int) (int64, error) {
	result := tx.Where("reference_type = ? AND document_id = ?", refType, documentId).
		Delete(&InventoryMovement{})
	return result.RowsAffected, result.Error
}
