package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type DocumentType string

const (
	DocumentTypeReceipt  DocumentType = "Receipt"
	DocumentTypeWriteOff DocumentType = "WriteOff"
)

func (t DocumentType) Valid() bool {
	return t == DocumentTypeReceipt || t == DocumentTypeWriteOff
}

func (t *DocumentType) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*t = DocumentType(str)
	return nil
}

func (t DocumentType) Value() (driver.Value, error) {
	return string(t), nil
}

type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "draft"
	DocumentStatusPosted DocumentStatus = "posted"
)

func (s DocumentStatus) Valid() bool {
	return s == DocumentStatusDraft || s == DocumentStatusPosted
}

func (s *DocumentStatus) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*s = DocumentStatus(str)
	return nil
}

func (s DocumentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type MovementType string

const (
	MovementTypeIn  MovementType = "IN"
	MovementTypeOut MovementType = "OUT"
)

func (t *MovementType) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*t = MovementType(str)
	return nil
}

func (t MovementType) Value() (driver.Value, error) {
	return string(t), nil
}

// MovementReferenceType tells which kind of business document owns a movement.
type MovementReferenceType string

const (
	MovementReferenceTypeDocument MovementReferenceType = "DOC"
	MovementReferenceTypeShipment MovementReferenceType = "SHP"
)

func (t *MovementReferenceType) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*t = MovementReferenceType(str)
	return nil
}

func (t MovementReferenceType) Value() (driver.Value, error) {
	return string(t), nil
}

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "Новый"
	OrderStatusInProgress OrderStatus = "В работе"
	OrderStatusDone       OrderStatus = "Выполнен"
	OrderStatusCancelled  OrderStatus = "Отменен"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusDone, OrderStatusCancelled:
		return true
	}
	return false
}

func (s *OrderStatus) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*s = OrderStatus(str)
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type ShipmentStatus string

const (
	ShipmentStatusDraft     ShipmentStatus = "draft"
	ShipmentStatusShipped   ShipmentStatus = "shipped"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusDraft, ShipmentStatusShipped, ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

// Posted reports whether the shipment status carries ledger effects.
func (s ShipmentStatus) Posted() bool {
	return s == ShipmentStatusShipped || s == ShipmentStatusDelivered
}

func (s *ShipmentStatus) Scan(value interface{}) error {
	str, err := scanEnumString(value)
	if err != nil {
		return err
	}
	*s = ShipmentStatus(str)
	return nil
}

func (s ShipmentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func scanEnumString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.New(fmt.Sprint("cannot scan enum from ", value))
	}
}
