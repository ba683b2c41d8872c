package models

import (
	"log"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &Warehouse{}, &Supplier{}, &Contractor{},
		&Document{}, &DocumentItem{},
		&Order{}, &OrderItem{}, &Reserve{},
		&Shipment{}, &ShipmentItem{},
		&InventoryMovement{},
		&DaySequence{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
