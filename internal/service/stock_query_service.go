package service

import (
	"context"
	"strings"
	"time"

	"github.com/catalog-feed/internal/cache"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/repository"
)

// stockSnapshotStore 库存快照存储
type stockSnapshotStore interface {
	Get(ctx context.Context, sku string) (*cache.StockState, bool, error)
	Set(ctx context.Context, state *cache.StockState, ttl time.Duration) error
	Del(ctx context.Context, sku string) error
}

type redisStockSnapshots struct{}

func (redisStockSnapshots) Get(ctx context.Context, sku string) (*cache.StockState, bool, error) {
	return cache.GetStockState(ctx, sku)
}

func (redisStockSnapshots) Set(ctx context.Context, state *cache.StockState, ttl time.Duration) error {
	return cache.SetStockState(ctx, state, ttl)
}

func (redisStockSnapshots) Del(ctx context.Context, sku string) error {
	return cache.DelStockState(ctx, sku)
}

// StockQueryService 库存快照查询与缓存刷新
type StockQueryService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockItemRepository
	cacheTTL    time.Duration
	snapshots   stockSnapshotStore
}

// NewStockQueryService 创建库存查询服务
func NewStockQueryService(productRepo repository.ProductRepository, stockRepo repository.StockItemRepository, cacheTTL time.Duration) *StockQueryService {
	return &StockQueryService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		cacheTTL:    cacheTTL,
		snapshots:   redisStockSnapshots{},
	}
}

// GetBySKU 获取库存快照，优先读缓存
func (s *StockQueryService) GetBySKU(ctx context.Context, sku string) (*cache.StockState, error) {
	code := strings.TrimSpace(sku)
	if code == "" {
		return nil, &SKUNotFoundError{SKU: code}
	}
	state, hit, err := s.snapshots.Get(ctx, code)
	if err != nil {
		logger.Warnw("catalog_stock_cache_read_failed", "sku", code, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}

	product, err := s.productRepo.GetBySKU(code)
	if err != nil {
		return nil, wrapStorage("load product", err)
	}
	if product == nil {
		return nil, &SKUNotFoundError{SKU: code}
	}
	item, err := s.stockRepo.GetByProductID(product.ID)
	if err != nil {
		return nil, wrapStorage("load stock item", err)
	}
	state = cache.BuildStockState(product, item)
	if err := s.snapshots.Set(ctx, state, s.cacheTTL); err != nil {
		logger.Warnw("catalog_stock_cache_write_failed", "sku", code, "error", err)
	}
	return state, nil
}

// RefreshByProductIDs 从数据库重建指定商品的库存快照，不存在的商品跳过
func (s *StockQueryService) RefreshByProductIDs(ctx context.Context, productIDs []uint) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return 0, wrapStorage("load products", err)
	}
	items, err := s.stockRepo.ListByProductIDs(productIDs)
	if err != nil {
		return 0, wrapStorage("load stock items", err)
	}
	stockByProduct := make(map[uint]*models.StockItem, len(items))
	for i := range items {
		stockByProduct[items[i].ProductID] = &items[i]
	}

	refreshed := 0
	for i := range products {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		state := cache.BuildStockState(&products[i], stockByProduct[products[i].ID])
		if err := s.snapshots.Set(ctx, state, s.cacheTTL); err != nil {
			return refreshed, err
		}
		logger.Debugw("catalog_stock_snapshot_refreshed",
			"product_id", state.ProductID,
			"sku", state.SKU,
			"is_in_stock", state.IsInStock,
		)
		refreshed++
	}
	if missing := len(productIDs) - len(products); missing > 0 {
		logger.Warnw("catalog_stock_snapshot_products_missing", "requested", len(productIDs), "missing", missing)
	}
	return refreshed, nil
}

// InvalidateProducts 删除指定商品的库存快照，下次查询回源数据库
func (s *StockQueryService) InvalidateProducts(ctx context.Context, productIDs []uint) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return 0, wrapStorage("load products", err)
	}
	invalidated := 0
	for i := range products {
		if err := s.snapshots.Del(ctx, products[i].SKU); err != nil {
			return invalidated, err
		}
		invalidated++
	}
	return invalidated, nil
}
