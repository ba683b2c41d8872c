package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

type Warehouse struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name    string `json:"name" binding:"required,max=100"`
	Address string `json:"address"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewWarehouse) validate(ctx context.Context, id int) error {
	// name
	if err := utils.ValidateUnique[Warehouse](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		Name:    input.Name,
		Address: input.Address,
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(warehouse); err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input *NewWarehouse) (*Warehouse, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(warehouse).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Address": input.Address,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*warehouse); err != nil {
		return nil, err
	}
	return warehouse, nil
}

func DeleteWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	db := config.GetDB()
	result, err := utils.FetchModel[Warehouse](ctx, id)
	if err != nil {
		return nil, err
	}

	// do not delete warehouses still referenced by documents
	var count int64
	if err = db.WithContext(ctx).Model(&Document{}).
		Where("warehouse_id = ?", result.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by documents")
	}

	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	return GetResource[Warehouse](ctx, id)
}

func GetWarehousesAll(ctx context.Context) ([]*Warehouse, error) {
	return ListAllResource[Warehouse](ctx, "name")
}
