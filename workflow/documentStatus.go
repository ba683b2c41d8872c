package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// Posting a document is the moment its ledger rows come into existence;
// unposting removes them again. A document's movements therefore exist exactly
// while its status is posted, and both transitions are idempotent.

func loadDocumentForStatusChange(tx *gorm.DB, ctx context.Context, id int) (*models.Document, error) {
	var document models.Document
	if err := tx.WithContext(ctx).Preload("Items").First(&document, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &document, nil
}

// PostDocument transitions draft to posted and materializes the movements.
// Posting an already posted document is a no-op.
func PostDocument(ctx context.Context, id int) (*models.Document, error) {
	logger := config.GetLogger()
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	db := config.GetDB()
	var document *models.Document
	changed := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		document, err = loadDocumentForStatusChange(tx, ctx, id)
		if err != nil {
			return err
		}
		if document.Status == models.DocumentStatusPosted {
			return nil
		}
		changed = true

		release, err := AcquireProductPostingLocks(tx, documentProductIds(document.Items))
		if err != nil {
			config.LogError(logger, "documentStatus.go", "PostDocument", "AcquireLocks", id, err)
			return err
		}
		defer release()

		if err := writeDocumentMovements(tx, document, correlationId); err != nil {
			config.LogError(logger, "documentStatus.go", "PostDocument", "WriteMovements", id, err)
			return err
		}

		now := time.Now()
		document.Status = models.DocumentStatusPosted
		document.PostedAt = &now
		err = tx.Model(document).Updates(map[string]interface{}{
			"Status":   document.Status,
			"PostedAt": document.PostedAt,
		}).Error
		if err != nil {
			config.LogError(logger, "documentStatus.go", "PostDocument", "UpdateStatus", id, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		models.InvalidateInventoryCache(ctx)
	}
	return document, nil
}

// UnpostDocument transitions posted back to draft and deletes the document's
// movements. Unposting a draft is a no-op.
func UnpostDocument(ctx context.Context, id int) (*models.Document, error) {
	logger := config.GetLogger()

	db := config.GetDB()
	var document *models.Document
	changed := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		document, err = loadDocumentForStatusChange(tx, ctx, id)
		if err != nil {
			return err
		}
		if document.Status == models.DocumentStatusDraft {
			return nil
		}
		changed = true

		release, err := AcquireProductPostingLocks(tx, documentProductIds(document.Items))
		if err != nil {
			config.LogError(logger, "documentStatus.go", "UnpostDocument", "AcquireLocks", id, err)
			return err
		}
		defer release()

		if _, err := models.DeleteMovementsFor(tx, models.MovementReferenceTypeDocument, document.ID); err != nil {
			config.LogError(logger, "documentStatus.go", "UnpostDocument", "DeleteMovements", id, err)
			return err
		}

		document.Status = models.DocumentStatusDraft
		document.PostedAt = nil
		err = tx.Model(document).Updates(map[string]interface{}{
			"Status":   document.Status,
			"PostedAt": nil,
		}).Error
		if err != nil {
			config.LogError(logger, "documentStatus.go", "UnpostDocument", "UpdateStatus", id, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		models.InvalidateInventoryCache(ctx)
	}
	return document, nil
}

// ToggleDocumentStatus flips draft to posted or posted to draft.
func ToggleDocumentStatus(ctx context.Context, id int) (*models.Document, error) {
	document, err := models.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if document.Status == models.DocumentStatusPosted {
		return UnpostDocument(ctx, id)
	}
	return PostDocument(ctx, id)
}

// DocumentStatusStats counts documents per type and status.
type DocumentStatusStats struct {
	Type   models.DocumentType   `json:"type"`
	Status models.DocumentStatus `json:"status"`
	Count  int64                 `json:"count"`
}

func GetDocumentStatusStats(ctx context.Context) ([]DocumentStatusStats, error) {
	db := config.GetDB()
	var stats []DocumentStatusStats
	err := db.WithContext(ctx).Model(&models.Document{}).
		Select("type, status, COUNT(*) AS count").
		Group("type, status").
		Order("type, status").
		Scan(&stats).Error
	if err != nil {
		config.LogError(config.GetLogger(), "documentStatus.go", "GetDocumentStatusStats", "query", nil, err)
		return nil, err
	}
	return stats, nil
}
