package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

// Magnitude limits for values crossing the HTTP boundary.
var (
	MaxQuantity = decimal.NewFromInt(999999)
	MaxPrice    = decimal.RequireFromString("999999999.99")
)

const (
	QuantityPrecision = 3
	PricePrecision    = 2
)

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ParseQuantity parses a quantity string with fixed-point semantics:
// at most 3 fractional digits, positive, magnitude capped at 999999.
func ParseQuantity(field string, value string) (decimal.Decimal, error) {
	dec, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "invalid quantity")
	}
	if !dec.Equal(dec.Round(QuantityPrecision)) {
		return decimal.Zero, NewValidationError(field, "quantity supports at most 3 decimal places")
	}
	if !dec.IsPositive() {
		return decimal.Zero, NewValidationError(field, "quantity must be greater than zero")
	}
	if dec.GreaterThan(MaxQuantity) {
		return decimal.Zero, NewValidationError(field, "quantity exceeds maximum of "+MaxQuantity.String())
	}
	return dec, nil
}

// ParsePrice parses a price string: at most 2 fractional digits, non-negative,
// magnitude capped at 999999999.99. Empty string means "no price" and yields zero.
func ParsePrice(field string, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	dec, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "invalid price")
	}
	if !dec.Equal(dec.Round(PricePrecision)) {
		return decimal.Zero, NewValidationError(field, "price supports at most 2 decimal places")
	}
	if dec.IsNegative() {
		return decimal.Zero, NewValidationError(field, "price cannot be negative")
	}
	if dec.GreaterThan(MaxPrice) {
		return decimal.Zero, NewValidationError(field, "price exceeds maximum of "+MaxPrice.String())
	}
	return dec, nil
}

// AppLock obtains a best-effort Redis lock for the given scope. Correctness-critical
// serialization still goes through MySQL advisory locks; this only shortens the
// window in which two app instances contend on the same rows.
func AppLock(ctx context.Context, lockType string, scope string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", scope, errors.New("redis lock is nil"))
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, scope)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock", scope, err)
		return nil, errors.New("could not obtain lock for " + lockKey)
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", scope, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
