package models

import (
	"context"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

/* master data */

func (obj Product) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Product](obj.ID)
}

func (obj Product) RemoveAllRedis() error {
	return utils.RemoveRedisList[Product]()
}

func (obj Warehouse) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Warehouse](obj.ID)
}

func (obj Warehouse) RemoveAllRedis() error {
	return utils.RemoveRedisList[Warehouse]()
}

func (obj Supplier) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Supplier](obj.ID)
}

func (obj Supplier) RemoveAllRedis() error {
	return utils.RemoveRedisList[Supplier]()
}

func (obj Contractor) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Contractor](obj.ID)
}

func (obj Contractor) RemoveAllRedis() error {
	return utils.RemoveRedisList[Contractor]()
}

// InvalidateInventoryCache drops every cached inventory read, including the
// HTTP response cache. Callers run it after commit; a failure here must never
// fail the business operation, so errors are logged and swallowed.
func InvalidateInventoryCache(ctx context.Context) {
	logger := config.GetLogger()
	for _, pattern := range []string{"inventory:*", "http:inventory*"} {
		if err := config.RemoveRedisPattern(ctx, pattern); err != nil {
			config.LogError(logger, "models", "InvalidateInventoryCache", pattern, nil, err)
		}
	}
}
