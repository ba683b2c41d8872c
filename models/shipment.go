package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// Shipment releases a reserved order's goods from a warehouse. Unlike generic
// documents, a shipment writes its OUT movements when it enters a shipped
// state and removes them when it leaves one.
type Shipment struct {
	ID          int            `gorm:"primary_key" json:"id"`
	OrderId     int            `gorm:"index;not null" json:"order_id"`
	WarehouseId int            `gorm:"index;not null" json:"warehouse_id"`
	Status      ShipmentStatus `gorm:"type:enum('draft','shipped','delivered','cancelled');not null;default:'draft'" json:"status"`
	Date        time.Time      `json:"date"`
	Comment     string         `gorm:"size:512" json:"comment"`
	Items       []ShipmentItem `gorm:"foreignKey:ShipmentId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ShipmentItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	ShipmentId int             `gorm:"index;not null" json:"shipment_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Qty        decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
}

type NewShipment struct {
	OrderId int               `json:"order_id"` // taken from the route, not the body
	Status  string            `json:"status" binding:"omitempty,oneof=draft shipped delivered cancelled"`
	Date    *time.Time        `json:"date"`
	Comment string            `json:"comment" binding:"omitempty,max=512"`
	Items   []NewShipmentItem `json:"items" binding:"required,min=1,dive"`
}

type NewShipmentItem struct {
	ProductId int    `json:"product_id" binding:"required"`
	Qty       string `json:"quantity" binding:"required,quantity"`
	Price     string `json:"price" binding:"omitempty,price"`
}

func (input *NewShipment) Validate(ctx context.Context) error {
	productIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		productIds = append(productIds, item.ProductId)
	}
	if err := utils.ValidateResourcesId[Product](ctx, utils.UniqueSlice(productIds)); err != nil {
		return utils.NewValidationError("items", "product not found")
	}
	return nil
}

func (input *NewShipment) ToItems() ([]ShipmentItem, error) {
	items := make([]ShipmentItem, 0, len(input.Items))
	for _, in := range input.Items {
		qty, err := utils.ParseQuantity("quantity", in.Qty)
		if err != nil {
			return nil, err
		}
		price, err := utils.ParsePrice("price", in.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, ShipmentItem{
			ProductId: in.ProductId,
			Qty:       qty,
			Price:     price,
		})
	}
	return items, nil
}

func GetShipment(ctx context.Context, id int) (*Shipment, error) {
	db := config.GetDB()
	var shipment Shipment
	err := db.WithContext(ctx).Preload("Items").First(&shipment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		config.LogError(config.GetLogger(), "models", "GetShipment", "query", map[string]interface{}{"id": id}, err)
		return nil, err
	}
	return &shipment, nil
}

func GetShipmentsForOrder(ctx context.Context, orderId int) ([]Shipment, error) {
	db := config.GetDB()
	var shipments []Shipment
	err := db.WithContext(ctx).Preload("Items").
		Where("order_id = ?", orderId).
		Order("created_at DESC, id DESC").
		Find(&shipments).Error
	if err != nil {
		config.LogError(config.GetLogger(), "models", "GetShipmentsForOrder", "query", map[string]interface{}{"order_id": orderId}, err)
		return nil, err
	}
	return shipments, nil
}
