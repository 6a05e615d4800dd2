package service

import (
	"errors"
	"fmt"

	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/repository"
)

// StockPropagator 根据子商品库存回算父商品有货标记
type StockPropagator struct {
	stockRepo repository.StockItemRepository
	reindex   ReindexRegistry
	locker    ParentLocker
	isolate   bool
}

// NewStockPropagator 创建父商品库存回算器
func NewStockPropagator(stockRepo repository.StockItemRepository, reindex ReindexRegistry, locker ParentLocker, isolate bool) *StockPropagator {
	return &StockPropagator{
		stockRepo: stockRepo,
		reindex:   reindex,
		locker:    locker,
		isolate:   isolate,
	}
}

// PropagateParents 依次回算父商品
// 默认遇到第一个失败即停止；隔离模式下尝试全部父商品并合并错误。
func (p *StockPropagator) PropagateParents(parentIDs []uint) error {
	var errs []error
	for _, parentID := range parentIDs {
		if err := p.refreshParent(parentID); err != nil {
			if !p.isolate {
				return err
			}
			logger.Warnw("catalog_parent_stock_refresh_failed", "parent_id", parentID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *StockPropagator) refreshParent(parentID uint) error {
	if p.locker != nil {
		unlock, err := p.locker.Lock(parentID)
		if err != nil {
			return fmt.Errorf("parent %d: %w", parentID, err)
		}
		defer unlock()
	}

	total, err := p.stockRepo.SumChildQuantity(parentID)
	if err != nil {
		return wrapStorage(fmt.Sprintf("sum child quantity of parent %d", parentID), err)
	}
	inStock := isInStock(total)
	if _, err := p.stockRepo.UpdateStatus(parentID, inStock); err != nil {
		return wrapStorage(fmt.Sprintf("update stock status of parent %d", parentID), err)
	}
	logger.Debugw("catalog_parent_stock_refreshed",
		"parent_id", parentID,
		"child_qty", total.String(),
		"is_in_stock", inStock,
	)
	if p.reindex != nil {
		p.reindex.AddProduct(parentID)
	}
	return nil
}
