package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// Document is a receipt or write-off. Its items describe intent; the ledger
// rows derived from them exist exactly while the document is posted.
type Document struct {
	ID          int            `gorm:"primary_key" json:"id"`
	Name        string         `gorm:"size:64;not null" json:"name"`
	Type        DocumentType   `gorm:"type:enum('Receipt','WriteOff');not null" json:"type"`
	Status      DocumentStatus `gorm:"type:enum('draft','posted');not null;default:'draft'" json:"status"`
	WarehouseId int            `gorm:"index;not null" json:"warehouse_id"`
	SupplierId  *int           `gorm:"index" json:"supplier_id"`
	Comment     string         `gorm:"size:512" json:"comment"`
	Items       []DocumentItem `gorm:"foreignKey:DocumentId;constraint:OnDelete:CASCADE" json:"items"`
	PostedAt    *time.Time     `json:"posted_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type DocumentItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	DocumentId int             `gorm:"index;not null" json:"document_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Qty        decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
}

type NewDocument struct {
	Type        string `json:"type" binding:"required,oneof=Receipt WriteOff"`
	Status      string `json:"status" binding:"omitempty,oneof=draft posted"`
	WarehouseId int    `json:"warehouse_id" binding:"required"`
	SupplierId  *int   `json:"supplier_id"`
	Comment     string `json:"comment" binding:"omitempty,max=512"`
	// Omitted on update means the old items are stripped and nothing replaces
	// them. Creation additionally requires at least one item.
	Items []NewDocumentItem `json:"items" binding:"omitempty,dive"`
}

type NewDocumentItem struct {
	ProductId int    `json:"product_id" binding:"required"`
	Qty       string `json:"quantity" binding:"required,quantity"`
	Price     string `json:"price" binding:"omitempty,price"`
}

func (input *NewDocument) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return utils.NewValidationError("warehouse_id", "warehouse not found")
	}
	if input.SupplierId != nil {
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return utils.NewValidationError("supplier_id", "supplier not found")
		}
	}
	productIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		productIds = append(productIds, item.ProductId)
	}
	if err := utils.ValidateResourcesId[Product](ctx, utils.UniqueSlice(productIds)); err != nil {
		return utils.NewValidationError("items", "product not found")
	}
	return nil
}

// ToItems parses the decimal strings of the payload into persistable items.
func (input *NewDocument) ToItems() ([]DocumentItem, error) {
	items := make([]DocumentItem, 0, len(input.Items))
	for _, in := range input.Items {
		qty, err := utils.ParseQuantity("quantity", in.Qty)
		if err != nil {
			return nil, err
		}
		price, err := utils.ParsePrice("price", in.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, DocumentItem{
			ProductId: in.ProductId,
			Qty:       qty,
			Price:     price,
		})
	}
	return items, nil
}

// Validate runs referential checks outside any transaction so workflows fail
// fast before taking locks.
func (input *NewDocument) Validate(ctx context.Context) error {
	return input.validate(ctx)
}

func GetDocument(ctx context.Context, id int) (*Document, error) {
	db := config.GetDB()
	var document Document
	err := db.WithContext(ctx).Preload("Items").First(&document, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		config.LogError(config.GetLogger(), "models", "GetDocument", "query", map[string]interface{}{"id": id}, err)
		return nil, err
	}
	return &document, nil
}

// DocumentFilter narrows GetDocumentsAll.
type DocumentFilter struct {
	Type        *DocumentType
	Status      *DocumentStatus
	WarehouseId *int
}

func GetDocumentsAll(ctx context.Context, filter DocumentFilter) ([]Document, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Order("created_at DESC, id DESC")
	if filter.Type != nil {
		dbCtx = dbCtx.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	var documents []Document
	if err := dbCtx.Find(&documents).Error; err != nil {
		config.LogError(config.GetLogger(), "models", "GetDocumentsAll", "query", nil, err)
		return nil, err
	}
	return documents, nil
}
