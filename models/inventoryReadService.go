package models

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

// InventoryItem is one row of the stock summary. Quantity is computed from the
// ledger at query time, never read from a stored balance.
type InventoryItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// InventoryAvailabilityItem extends the summary with open reserves.
type InventoryAvailabilityItem struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Reserved  float64 `json:"reserved"`
	Available float64 `json:"available"`
}

func inventoryCacheKey(prefix string, warehouseId *int) string {
	if warehouseId == nil {
		return "inventory:" + prefix
	}
	return fmt.Sprintf("inventory:%s:%d", prefix, *warehouseId)
}

// GetInventory returns the per-product quantity-on-hand, optionally narrowed
// to one warehouse. Read-through cached; every ledger write invalidates the
// inventory namespace.
func GetInventory(ctx context.Context, warehouseId *int) ([]InventoryItem, error) {
	key := inventoryCacheKey("summary", warehouseId)
	var cached []InventoryItem
	if exists, err := config.GetRedisObject(key, &cached); err == nil && exists {
		return cached, nil
	}

	db := config.GetDB()
	movementFilter := ""
	args := []interface{}{}
	if warehouseId != nil {
		movementFilter = " AND m.warehouse_id = ?"
		args = append(args, *warehouseId)
	}
	var items []InventoryItem
	err := db.WithContext(ctx).Raw(
		"SELECT p.id AS id, p.name AS name, COALESCE(SUM(m.qty), 0) AS quantity "+
			"FROM products p "+
			"LEFT JOIN inventory_movements m ON m.product_id = p.id"+movementFilter+" "+
			"GROUP BY p.id, p.name "+
			"ORDER BY p.name ASC", args...,
	).Scan(&items).Error
	if err != nil {
		config.LogError(config.GetLogger(), "models", "GetInventory", "query", nil, err)
		return nil, err
	}

	if err := config.SetRedisObject(key, &items, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "models", "GetInventory", "cache", nil, err)
	}
	return items, nil
}

// GetInventoryAvailability returns quantity, reserved and available per
// product. Available is quantity minus open reserves; it can go negative when
// stock was oversold.
func GetInventoryAvailability(ctx context.Context, warehouseId *int) ([]InventoryAvailabilityItem, error) {
	key := inventoryCacheKey("availability", warehouseId)
	var cached []InventoryAvailabilityItem
	if exists, err := config.GetRedisObject(key, &cached); err == nil && exists {
		return cached, nil
	}

	db := config.GetDB()
	movementFilter := ""
	reserveFilter := ""
	args := []interface{}{}
	if warehouseId != nil {
		movementFilter = " AND m.warehouse_id = ?"
		reserveFilter = " AND r.warehouse_id = ?"
		args = append(args, *warehouseId, *warehouseId)
	}
	var items []InventoryAvailabilityItem
	err := db.WithContext(ctx).Raw(
		"SELECT p.id AS id, p.name AS name, "+
			"COALESCE(mv.quantity, 0) AS quantity, "+
			"COALESCE(rv.reserved, 0) AS reserved, "+
			"COALESCE(mv.quantity, 0) - COALESCE(rv.reserved, 0) AS available "+
			"FROM products p "+
			"LEFT JOIN (SELECT m.product_id, SUM(m.qty) AS quantity FROM inventory_movements m WHERE 1=1"+movementFilter+" GROUP BY m.product_id) mv ON mv.product_id = p.id "+
			"LEFT JOIN (SELECT r.product_id, SUM(r.qty) AS reserved FROM reserves r WHERE 1=1"+reserveFilter+" GROUP BY r.product_id) rv ON rv.product_id = p.id "+
			"ORDER BY p.name ASC", args...,
	).Scan(&items).Error
	if err != nil {
		config.LogError(config.GetLogger(), "models", "GetInventoryAvailability", "query", nil, err)
		return nil, err
	}

	if err := config.SetRedisObject(key, &items, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "models", "GetInventoryAvailability", "cache", nil, err)
	}
	return items, nil
}
