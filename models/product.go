package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int              `gorm:"primary_key" json:"id"`
	Name          string           `gorm:"size:255;not null" json:"name"`
	Sku           string           `gorm:"size:100;uniqueIndex;not null" json:"sku"`
	Price         decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"price"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(20,2)" json:"purchase_price"`
	Barcode       string           `gorm:"size:50" json:"barcode"`
	Weight        *decimal.Decimal `gorm:"type:decimal(20,3)" json:"weight"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string `json:"name" binding:"required,max=255"`
	Sku           string `json:"sku" binding:"required,max=100"`
	Price         string `json:"price" binding:"required,price"`
	PurchasePrice string `json:"purchasePrice" binding:"omitempty,price"`
	Barcode       string `json:"barcode" binding:"max=50"`
	Weight        string `json:"weight"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	// sku
	if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
		return err
	}
	return nil
}

func (input *NewProduct) toModel() (*Product, error) {
	price, err := utils.ParsePrice("price", input.Price)
	if err != nil {
		return nil, err
	}
	product := Product{
		Name:    input.Name,
		Sku:     input.Sku,
		Price:   price,
		Barcode: input.Barcode,
	}
	if input.PurchasePrice != "" {
		pp, err := utils.ParsePrice("purchasePrice", input.PurchasePrice)
		if err != nil {
			return nil, err
		}
		product.PurchasePrice = &pp
	}
	if input.Weight != "" {
		w, err := utils.ParseDecimal(input.Weight)
		if err != nil {
			return nil, utils.NewValidationError("weight", "invalid weight")
		}
		product.Weight = &w
	}
	return &product, nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product, err := input.toModel()
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*product); err != nil {
		return nil, err
	}
	return product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := input.toModel()
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":          updated.Name,
		"Sku":           updated.Sku,
		"Price":         updated.Price,
		"PurchasePrice": updated.PurchasePrice,
		"Barcode":       updated.Barcode,
		"Weight":        updated.Weight,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*product); err != nil {
		return nil, err
	}
	// inventory summaries embed the product name
	InvalidateInventoryCache(ctx)
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	result, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	// do not delete products referenced by the ledger
	var count int64
	if err = db.WithContext(ctx).Model(&InventoryMovement{}).
		Where("product_id = ?", result.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("product has inventory movements")
	}

	// db action
	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	InvalidateInventoryCache(ctx)
	return result, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return GetResource[Product](ctx, id)
}

func GetProductsAll(ctx context.Context) ([]*Product, error) {
	return ListAllResource[Product](ctx, "name")
}
