package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// Order is a customer order. Orders never touch the ledger; they influence
// availability only through their Reserve rows.
type Order struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:64;not null" json:"name"`
	Status       OrderStatus     `gorm:"type:enum('Новый','В работе','Выполнен','Отменен');not null;default:'Новый'" json:"status"`
	ContractorId *int            `gorm:"index" json:"contractor_id"`
	WarehouseId  int             `gorm:"index;not null" json:"warehouse_id"`
	IsReserved   bool            `gorm:"not null;default:false" json:"is_reserved"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	Comment      string          `gorm:"size:512" json:"comment"`
	Items        []OrderItem     `gorm:"foreignKey:OrderId;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	OrderId   int             `gorm:"index;not null" json:"order_id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Qty       decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
}

// Reserve holds quantity back from availability while an order is open.
type Reserve struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderId     int             `gorm:"index;not null" json:"order_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	WarehouseId int             `gorm:"index;not null" json:"warehouse_id"`
	Qty         decimal.Decimal `gorm:"type:decimal(20,3);not null" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
}

type NewOrder struct {
	Status       string         `json:"status" binding:"omitempty,oneof=Новый 'В работе' Выполнен Отменен"`
	ContractorId *int           `json:"contractor_id"`
	WarehouseId  int            `json:"warehouse_id" binding:"required"`
	IsReserved   bool           `json:"is_reserved"`
	Comment      string         `json:"comment" binding:"omitempty,max=512"`
	Items        []NewOrderItem `json:"items" binding:"required,min=1,dive"`
}

type NewOrderItem struct {
	ProductId int    `json:"product_id" binding:"required"`
	Qty       string `json:"quantity" binding:"required,quantity"`
	Price     string `json:"price" binding:"omitempty,price"`
}

func (input *NewOrder) Validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return utils.NewValidationError("warehouse_id", "warehouse not found")
	}
	if input.ContractorId != nil {
		if err := utils.ValidateResourceId[Contractor](ctx, *input.ContractorId); err != nil {
			return utils.NewValidationError("contractor_id", "contractor not found")
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

func (input *NewOrder) ToItems() ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		qty, err := utils.ParseQuantity("quantity", in.Qty)
		if err != nil {
			return nil, err
		}
		price, err := utils.ParsePrice("price", in.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, OrderItem{
			ProductId: in.ProductId,
			Qty:       qty,
			Price:     price,
		})
	}
	return items, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	db := config.GetDB()
	var order Order
	err := db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		config.LogError(config.GetLogger(), "models", "GetOrder", "query", map[string]interface{}{"id": id}, err)
		return nil, err
	}
	return &order, nil
}

type OrderFilter struct {
	Status       *OrderStatus
	ContractorId *int
	WarehouseId  *int
}

func GetOrdersAll(ctx context.Context, filter OrderFilter) ([]Order, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Order("created_at DESC, id DESC")
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.ContractorId != nil {
		dbCtx = dbCtx.Where("contractor_id = ?", *filter.ContractorId)
	}
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	var orders []Order
	if err := dbCtx.Find(&orders).Error; err != nil {
		config.LogError(config.GetLogger(), "models", "GetOrdersAll", "query", nil, err)
		return nil, err
	}
	return orders, nil
}
