package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// writeDocumentMovements derives the ledger rows for a posted document from
// its items. Receipts append one IN per line; write-offs walk the FIFO lots.
// The caller holds the posting locks for every product involved.
func writeDocumentMovements(tx *gorm.DB, document *models.Document, correlationId string) error {
	for _, item := range document.Items {
		switch document.Type {
		case models.DocumentTypeReceipt:
			_, err := receiveIntoStock(tx, item.ProductId, document.WarehouseId, item.Qty, item.Price,
				models.MovementReferenceTypeDocument, document.ID, correlationId)
			if err != nil {
				return err
			}
		case models.DocumentTypeWriteOff:
			_, err := ConsumeFifo(tx, item.ProductId, document.WarehouseId, item.Qty, item.Price,
				models.MovementReferenceTypeDocument, document.ID, correlationId)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func documentProductIds(items []models.DocumentItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductId)
	}
	return utils.UniqueSlice(ids)
}

// CreateDocumentWithInventory creates the header, its items and, when the
// document arrives already posted, the ledger movements, all in one
// transaction. Nothing partial ever persists.
//
// GET_LOCK is session-scoped and survives commit, so the posting locks are
// released inside the Transaction closure while the tx is still open. The
// FOR UPDATE row locks on the lots hold until commit.
func CreateDocumentWithInventory(ctx context.Context, input *models.NewDocument) (*models.Document, error) {
	logger := config.GetLogger()
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, utils.NewValidationError("items", "at least one item is required")
	}
	items, err := input.ToItems()
	if err != nil {
		return nil, err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	status := models.DocumentStatusDraft
	if input.Status != "" {
		status = models.DocumentStatus(input.Status)
	}
	document := models.Document{
		Type:        models.DocumentType(input.Type),
		Status:      status,
		WarehouseId: input.WarehouseId,
		SupplierId:  input.SupplierId,
		Comment:     input.Comment,
		Items:       items,
	}

	db := config.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		release, err := AcquireProductPostingLocks(tx, documentProductIds(items))
		if err != nil {
			config.LogError(logger, "documentWorkflow.go", "CreateDocumentWithInventory", "AcquireLocks", input, err)
			return err
		}
		defer release()

		now := time.Now()
		document.Name, err = nextDocumentName(tx, document.Type, now)
		if err != nil {
			config.LogError(logger, "documentWorkflow.go", "CreateDocumentWithInventory", "NextDaySequence", input, err)
			return err
		}
		if status == models.DocumentStatusPosted {
			document.PostedAt = &now
		}

		if err := tx.WithContext(ctx).Create(&document).Error; err != nil {
			config.LogError(logger, "documentWorkflow.go", "CreateDocumentWithInventory", "Create", input, err)
			return err
		}

		if status == models.DocumentStatusPosted {
			if err := writeDocumentMovements(tx, &document, correlationId); err != nil {
				config.LogError(logger, "documentWorkflow.go", "CreateDocumentWithInventory", "WriteMovements", document.ID, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	models.InvalidateInventoryCache(ctx)
	return &document, nil
}

// UpdateDocumentWithInventory replaces the document's items wholesale and
// rebuilds its ledger effect. No diffing: old movements go, items are
// rewritten, and a posted document gets movements recomputed against the
// current lot state. When the input carries no items the update is
// header-only in shape but still strips the old items and movements, leaving
// an empty document. The auto-generated name survives updates.
func UpdateDocumentWithInventory(ctx context.Context, id int, input *models.NewDocument) (*models.Document, error) {
	logger := config.GetLogger()
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}
	newItems, err := input.ToItems()
	if err != nil {
		return nil, err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	db := config.GetDB()
	var document models.Document
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Preload("Items").First(&document, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		lockIds := append(documentProductIds(document.Items), documentProductIds(newItems)...)
		release, err := AcquireProductPostingLocks(tx, utils.UniqueSlice(lockIds))
		if err != nil {
			config.LogError(logger, "documentWorkflow.go", "UpdateDocumentWithInventory", "AcquireLocks", id, err)
			return err
		}
		defer release()

		if _, err := models.DeleteMovementsFor(tx, models.MovementReferenceTypeDocument, document.ID); err != nil {
			config.LogError(logger, "documentWorkflow.go", "UpdateDocumentWithInventory", "DeleteMovements", id, err)
			return err
		}
		if err := tx.Where("document_id = ?", document.ID).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}

		status := document.Status
		if input.Status != "" {
			status = models.DocumentStatus(input.Status)
		}
		document.Type = models.DocumentType(input.Type)
		document.Status = status
		document.WarehouseId = input.WarehouseId
		document.SupplierId = input.SupplierId
		document.Comment = input.Comment
		if status == models.DocumentStatusPosted {
			if document.PostedAt == nil {
				now := time.Now()
				document.PostedAt = &now
			}
		} else {
			document.PostedAt = nil
		}

		if len(newItems) > 0 {
			for i := range newItems {
				newItems[i].DocumentId = document.ID
			}
			if err := tx.Create(&newItems).Error; err != nil {
				return err
			}
		}
		document.Items = newItems

		err = tx.WithContext(ctx).Model(&document).Updates(map[string]interface{}{
			"Type":        document.Type,
			"Status":      document.Status,
			"WarehouseId": document.WarehouseId,
			"SupplierId":  document.SupplierId,
			"Comment":     document.Comment,
			"PostedAt":    document.PostedAt,
		}).Error
		if err != nil {
			config.LogError(logger, "documentWorkflow.go", "UpdateDocumentWithInventory", "UpdateHeader", id, err)
			return err
		}

		if status == models.DocumentStatusPosted {
			if err := writeDocumentMovements(tx, &document, correlationId); err != nil {
				config.LogError(logger, "documentWorkflow.go", "UpdateDocumentWithInventory", "WriteMovements", id, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	models.InvalidateInventoryCache(ctx)
	return &document, nil
}

// DeleteDocumentWithInventory removes the document and unwinds its ledger
// effect in the same transaction.
func DeleteDocumentWithInventory(ctx context.Context, id int) error {
	logger := config.GetLogger()
	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		var document models.Document
		if err := tx.WithContext(ctx).Preload("Items").First(&document, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		release, err := AcquireProductPostingLocks(tx, documentProductIds(document.Items))
		if err != nil {
			config.LogError(logger, "documentWorkflow.go", "DeleteDocumentWithInventory", "AcquireLocks", id, err)
			return err
		}
		defer release()

		if _, err := models.DeleteMovementsFor(tx, models.MovementReferenceTypeDocument, document.ID); err != nil {
			config.LogError(logger, "documentWorkflow.go", "DeleteDocumentWithInventory", "DeleteMovements", id, err)
			return err
		}
		if err := tx.Where("document_id = ?", document.ID).Delete(&models.DocumentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&document).Error
	})
	if err != nil {
		return err
	}
	models.InvalidateInventoryCache(ctx)
	return nil
}
