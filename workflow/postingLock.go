package workflow

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// AcquireProductPostingLock serializes ledger writes per product across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that will write the movements.
func AcquireProductPostingLock(tx *gorm.DB, productId int) error {
	lockName := fmt.Sprintf("inventory:product:%d", productId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for product_id=%d", productId)
	}
	return nil
}

func ReleaseProductPostingLock(tx *gorm.DB, productId int) {
	lockName := fmt.Sprintf("inventory:product:%d", productId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireProductPostingLocks takes the per-product locks in ascending id order
// so two transactions over overlapping product sets cannot deadlock. The
// returned release func undoes whatever was acquired.
func AcquireProductPostingLocks(tx *gorm.DB, productIds []int) (func(), error) {
	ids := make([]int, len(productIds))
	copy(ids, productIds)
	sort.Ints(ids)

	acquired := make([]int, 0, len(ids))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			ReleaseProductPostingLock(tx, acquired[i])
		}
	}
	for _, id := range ids {
		if err := AcquireProductPostingLock(tx, id); err != nil {
			release()
			return nil, err
		}
		acquired = append(acquired, id)
	}
	return release, nil
}
