package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

type Contractor struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Website   string    `gorm:"size:255" json:"website"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewContractor struct {
	Name    string `json:"name" binding:"required,max=255"`
	Website string `json:"website" binding:"max=255"`
}

func (input *NewContractor) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Contractor](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateContractor(ctx context.Context, input *NewContractor) (*Contractor, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	contractor := Contractor{
		Name:    input.Name,
		Website: input.Website,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&contractor).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(contractor); err != nil {
		return nil, err
	}
	return &contractor, nil
}

func UpdateContractor(ctx context.Context, id int, input *NewContractor) (*Contractor, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	contractor, err := utils.FetchModel[Contractor](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(contractor).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Website": input.Website,
	}).Error
	if err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*contractor); err != nil {
		return nil, err
	}
	return contractor, nil
}

func DeleteContractor(ctx context.Context, id int) (*Contractor, error) {
	result, err := utils.FetchModel[Contractor](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetContractor(ctx context.Context, id int) (*Contractor, error) {
	return GetResource[Contractor](ctx, id)
}

func GetContractorsAll(ctx context.Context) ([]*Contractor, error) {
	return ListAllResource[Contractor](ctx, "name")
}
