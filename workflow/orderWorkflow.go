package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// Orders never write ledger movements. Their only effect on stock is
// through Reserve rows, which subtract from availability until the order is
// shipped or released.

func createReservesForOrder(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		reserve := models.Reserve{
			OrderId:     order.ID,
			ProductId:   item.ProductId,
			WarehouseId: order.WarehouseId,
			Qty:         item.Qty,
		}
		if err := tx.Create(&reserve).Error; err != nil {
			return err
		}
	}
	return nil
}

func removeReservesForOrder(tx *gorm.DB, orderId int) error {
	return tx.Where("order_id = ?", orderId).Delete(&models.Reserve{}).Error
}

// CreateReservesForOrder reserves every item of an existing order.
func CreateReservesForOrder(ctx context.Context, orderId int) error {
	logger := config.GetLogger()
	db := config.GetDB()
	tx := db.Begin()

	var order models.Order
	if err := tx.WithContext(ctx).Preload("Items").First(&order, orderId).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	// replace, never accumulate
	if err := removeReservesForOrder(tx, order.ID); err != nil {
		tx.Rollback()
		return err
	}
	if err := createReservesForOrder(tx, &order); err != nil {
		config.LogError(logger, "orderWorkflow.go", "CreateReservesForOrder", "CreateReserves", orderId, err)
		tx.Rollback()
		return err
	}
	if err := tx.Model(&order).Update("IsReserved", true).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	models.InvalidateInventoryCache(ctx)
	return nil
}

// RemoveReservesForOrder releases every reserve the order holds.
func RemoveReservesForOrder(ctx context.Context, orderId int) error {
	db := config.GetDB()
	tx := db.Begin()

	var order models.Order
	if err := tx.WithContext(ctx).First(&order, orderId).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorRecordNotFound
		}
		return err
	}
	if err := removeReservesForOrder(tx, order.ID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&order).Update("IsReserved", false).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	models.InvalidateInventoryCache(ctx)
	return nil
}

// ProcessOrderWithReserves creates the order, its items, its computed total
// and name, and optionally its reserves, in one transaction.
func ProcessOrderWithReserves(ctx context.Context, input *models.NewOrder) (*models.Order, error) {
	logger := config.GetLogger()
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}
	items, err := input.ToItems()
	if err != nil {
		return nil, err
	}

	totalAmount := decimal.Zero
	for _, item := range items {
		totalAmount = totalAmount.Add(item.Qty.Mul(item.Price))
	}

	status := models.OrderStatusNew
	if input.Status != "" {
		status = models.OrderStatus(input.Status)
	}
	order := models.Order{
		Status:       status,
		ContractorId: input.ContractorId,
		WarehouseId:  input.WarehouseId,
		IsReserved:   input.IsReserved,
		TotalAmount:  totalAmount,
		Comment:      input.Comment,
		Items:        items,
	}

	db := config.GetDB()
	tx := db.Begin()

	order.Name, err = nextOrderName(tx, time.Now())
	if err != nil {
		config.LogError(logger, "orderWorkflow.go", "ProcessOrderWithReserves", "NextDaySequence", input, err)
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		config.LogError(logger, "orderWorkflow.go", "ProcessOrderWithReserves", "Create", input, err)
		tx.Rollback()
		return nil, err
	}

	if input.IsReserved {
		if err := createReservesForOrder(tx, &order); err != nil {
			config.LogError(logger, "orderWorkflow.go", "ProcessOrderWithReserves", "CreateReserves", order.ID, err)
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	if input.IsReserved {
		models.InvalidateInventoryCache(ctx)
	}
	return &order, nil
}

// UpdateOrderReservation re-reads the order's current items and rebuilds its
// reserves to match the requested flag.
func UpdateOrderReservation(ctx context.Context, orderId int, isReserved bool) error {
	if isReserved {
		return CreateReservesForOrder(ctx, orderId)
	}
	return RemoveReservesForOrder(ctx, orderId)
}

// DeleteOrderWithReserves removes the order, its items and its reserves.
// Orders with shipments must keep their history, so the delete is refused
// while any shipment references the order.
func DeleteOrderWithReserves(ctx context.Context, orderId int) error {
	logger := config.GetLogger()
	db := config.GetDB()
	tx := db.Begin()

	var order models.Order
	if err := tx.WithContext(ctx).First(&order, orderId).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	var shipmentCount int64
	if err := tx.Model(&models.Shipment{}).Where("order_id = ?", order.ID).Count(&shipmentCount).Error; err != nil {
		tx.Rollback()
		return err
	}
	if shipmentCount > 0 {
		tx.Rollback()
		return utils.NewValidationError("id", "order has shipments")
	}

	if err := removeReservesForOrder(tx, order.ID); err != nil {
		config.LogError(logger, "orderWorkflow.go", "DeleteOrderWithReserves", "RemoveReserves", orderId, err)
		tx.Rollback()
		return err
	}
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&order).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	models.InvalidateInventoryCache(ctx)
	return nil
}
