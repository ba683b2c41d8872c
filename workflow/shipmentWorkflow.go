package workflow

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// A shipment's ledger effect follows its status: entering shipped or
// delivered FIFO-writes the OUT movements, leaving that state (or deleting the
// shipment) removes them. This mirrors how documents behave around posted.

func shipmentProductIds(items []models.ShipmentItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductId)
	}
	return utils.UniqueSlice(ids)
}

func writeShipmentMovements(tx *gorm.DB, shipment *models.Shipment, correlationId string) error {
	for _, item := range shipment.Items {
		_, err := ConsumeFifo(tx, item.ProductId, shipment.WarehouseId, item.Qty, item.Price,
			models.MovementReferenceTypeShipment, shipment.ID, correlationId)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateShipment creates a shipment for a reserved order. When it is created
// directly in a shipped state the OUT movements are written in the same
// transaction. Posting locks are released inside the Transaction closure, on
// the still-open tx, since GET_LOCK survives commit.
func CreateShipment(ctx context.Context, input *models.NewShipment) (*models.Shipment, error) {
	logger := config.GetLogger()
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}
	items, err := input.ToItems()
	if err != nil {
		return nil, err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	order, err := models.GetOrder(ctx, input.OrderId)
	if err != nil {
		return nil, err
	}
	if !order.IsReserved {
		return nil, utils.NewValidationError("order_id", "order is not reserved")
	}

	// one shipment flow per order at a time across instances
	releaseLock, err := utils.AppLock(ctx, "shipment", fmt.Sprint(order.ID), "shipmentWorkflow.go", "CreateShipment")
	if err != nil {
		return nil, err
	}
	defer releaseLock()

	status := models.ShipmentStatusDraft
	if input.Status != "" {
		status = models.ShipmentStatus(input.Status)
	}
	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	shipment := models.Shipment{
		OrderId:     order.ID,
		WarehouseId: order.WarehouseId,
		Status:      status,
		Date:        date,
		Comment:     input.Comment,
		Items:       items,
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		release, err := AcquireProductPostingLocks(tx, shipmentProductIds(items))
		if err != nil {
			config.LogError(logger, "shipmentWorkflow.go", "CreateShipment", "AcquireLocks", input, err)
			return err
		}
		defer release()

		if err := tx.WithContext(ctx).Create(&shipment).Error; err != nil {
			config.LogError(logger, "shipmentWorkflow.go", "CreateShipment", "Create", input, err)
			return err
		}

		if status.Posted() {
			if err := writeShipmentMovements(tx, &shipment, correlationId); err != nil {
				config.LogError(logger, "shipmentWorkflow.go", "CreateShipment", "WriteMovements", shipment.ID, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status.Posted() {
		models.InvalidateInventoryCache(ctx)
	}
	return &shipment, nil
}

// UpdateShipmentStatus moves the shipment between states, writing or removing
// its movements when it crosses the shipped boundary. Transitions between two
// shipped states (shipped to delivered) leave the ledger untouched.
func UpdateShipmentStatus(ctx context.Context, id int, newStatus models.ShipmentStatus) (*models.Shipment, error) {
	logger := config.GetLogger()
	if !newStatus.Valid() {
		return nil, utils.NewValidationError("status", "unknown status")
	}

	db := config.GetDB()
	var shipment models.Shipment
	ledgerChanges := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Preload("Items").First(&shipment, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		wasPosted := shipment.Status.Posted()
		ledgerChanges = wasPosted != newStatus.Posted()

		if ledgerChanges {
			release, err := AcquireProductPostingLocks(tx, shipmentProductIds(shipment.Items))
			if err != nil {
				config.LogError(logger, "shipmentWorkflow.go", "UpdateShipmentStatus", "AcquireLocks", id, err)
				return err
			}
			defer release()

			if wasPosted {
				if _, err := models.DeleteMovementsFor(tx, models.MovementReferenceTypeShipment, shipment.ID); err != nil {
					config.LogError(logger, "shipmentWorkflow.go", "UpdateShipmentStatus", "DeleteMovements", id, err)
					return err
				}
			} else {
				correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
				if err := writeShipmentMovements(tx, &shipment, correlationId); err != nil {
					config.LogError(logger, "shipmentWorkflow.go", "UpdateShipmentStatus", "WriteMovements", id, err)
					return err
				}
			}
		}

		shipment.Status = newStatus
		if err := tx.Model(&shipment).Update("Status", newStatus).Error; err != nil {
			config.LogError(logger, "shipmentWorkflow.go", "UpdateShipmentStatus", "UpdateStatus", id, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ledgerChanges {
		models.InvalidateInventoryCache(ctx)
	}
	return &shipment, nil
}

// DeleteShipment removes the shipment and restores whatever stock it shipped.
func DeleteShipment(ctx context.Context, id int) error {
	logger := config.GetLogger()
	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var shipment models.Shipment
		if err := tx.WithContext(ctx).Preload("Items").First(&shipment, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		release, err := AcquireProductPostingLocks(tx, shipmentProductIds(shipment.Items))
		if err != nil {
			config.LogError(logger, "shipmentWorkflow.go", "DeleteShipment", "AcquireLocks", id, err)
			return err
		}
		defer release()

		if _, err := models.DeleteMovementsFor(tx, models.MovementReferenceTypeShipment, shipment.ID); err != nil {
			config.LogError(logger, "shipmentWorkflow.go", "DeleteShipment", "DeleteMovements", id, err)
			return err
		}
		if err := tx.Where("shipment_id = ?", shipment.ID).Delete(&models.ShipmentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&shipment).Error
	})
	if err != nil {
		return err
	}
	models.InvalidateInventoryCache(ctx)
	return nil
}
