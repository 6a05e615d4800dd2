package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ReindexPublisher 重建索引任务投递
type ReindexPublisher interface {
	EnqueueProductReindex(batchID string, productIDs []uint, opts ...asynq.Option) (int, error)
}

// StockSnapshotInvalidator 批次结束后清理库存快照
type StockSnapshotInvalidator interface {
	InvalidateProducts(ctx context.Context, productIDs []uint) (int, error)
}

// CatalogUpdateOptions 批量更新选项
type CatalogUpdateOptions struct {
	MaxItemsPerRequest    int
	IsolateParentFailures bool
	ReindexEnabled        bool
}

// BatchResult 批量更新结果
type BatchResult struct {
	BatchID       string   `json:"batch_id"`
	Items         int      `json:"items"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	FieldsSkipped int      `json:"fields_skipped"`
	ProductIDs    []uint   `json:"product_ids"`
	Errors        []string `json:"errors"`
	ReindexTasks  int      `json:"reindex_tasks"`
}

// HasSkipped 是否存在被跳过的 SKU 或字段
func (r *BatchResult) HasSkipped() bool {
	return r != nil && len(r.Errors) > 0
}

// CatalogUpdateService 商品批量更新服务
type CatalogUpdateService struct {
	productRepo   repository.ProductRepository
	stockRepo     repository.StockItemRepository
	superLinkRepo repository.SuperLinkRepository
	websiteRepo   repository.ProductWebsiteRepository
	attributes    AttributeResolver
	reindexQueue  ReindexPublisher
	parentLocker  ParentLocker
	snapshots     StockSnapshotInvalidator
	options       CatalogUpdateOptions
}

// NewCatalogUpdateService 创建批量更新服务
func NewCatalogUpdateService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockItemRepository,
	superLinkRepo repository.SuperLinkRepository,
	websiteRepo repository.ProductWebsiteRepository,
	attributes AttributeResolver,
	reindexQueue ReindexPublisher,
	parentLocker ParentLocker,
	snapshots StockSnapshotInvalidator,
	options CatalogUpdateOptions,
) *CatalogUpdateService {
	if options.MaxItemsPerRequest <= 0 {
		options.MaxItemsPerRequest = constants.DefaultMaxItemsPerRequest
	}
	return &CatalogUpdateService{
		productRepo:   productRepo,
		stockRepo:     stockRepo,
		superLinkRepo: superLinkRepo,
		websiteRepo:   websiteRepo,
		attributes:    attributes,
		reindexQueue:  reindexQueue,
		parentLocker:  parentLocker,
		snapshots:     snapshots,
		options:       options,
	}
}

// Apply 依次应用每个 SKU 的字段更新
// 单个 SKU 或字段失败只记录到结果中，不影响其余 SKU。
func (s *CatalogUpdateService) Apply(ctx context.Context, items []UpdateItem) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(items) > s.options.MaxItemsPerRequest {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(items), s.options.MaxItemsPerRequest)
	}

	batch := NewBatchRequest()
	result := &BatchResult{
		BatchID: uuid.NewString(),
		Items:   len(items),
	}
	deps := ProductUpdateDeps{
		ProductRepo:           s.productRepo,
		StockRepo:             s.stockRepo,
		SuperLinkRepo:         s.superLinkRepo,
		WebsiteRepo:           s.websiteRepo,
		Attributes:            s.attributes,
		Reindex:               batch,
		Errors:                batch,
		ParentLocker:          s.parentLocker,
		IsolateParentFailures: s.options.IsolateParentFailures,
	}

	var ctxErr error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		handle, err := NewProductHandle(deps, item.SKU)
		if err != nil {
			result.Skipped++
			batch.AddError(skuSkippedMessage(item.SKU, err))
			logger.Warnw("catalog_update_sku_skipped", "batch_id", result.BatchID, "sku", item.SKU, "error", err)
			continue
		}
		before := batch.ErrorCount()
		for _, field := range item.Fields {
			handle.UpdateField(field.Code, field.Value)
		}
		result.FieldsSkipped += batch.ErrorCount() - before
		result.Updated++
	}

	result.ProductIDs = batch.ProductIDs()
	result.Errors = batch.Errors()
	s.invalidateSnapshots(ctx, result.BatchID, result.ProductIDs)
	result.ReindexTasks = s.flushReindex(result.BatchID, result.ProductIDs)

	logger.Infow("catalog_update_batch_applied",
		"batch_id", result.BatchID,
		"items", result.Items,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"fields_skipped", result.FieldsSkipped,
		"products", len(result.ProductIDs),
		"reindex_tasks", result.ReindexTasks,
	)
	return result, ctxErr
}

// invalidateSnapshots 先删快照再投递重建任务，队列关闭时查询也不会读到旧值
func (s *CatalogUpdateService) invalidateSnapshots(ctx context.Context, batchID string, productIDs []uint) {
	if s.snapshots == nil || len(productIDs) == 0 {
		return
	}
	invalidated, err := s.snapshots.InvalidateProducts(context.WithoutCancel(ctx), productIDs)
	if err != nil {
		logger.Warnw("catalog_stock_snapshot_invalidate_failed",
			"batch_id", batchID,
			"products", len(productIDs),
			"invalidated", invalidated,
			"error", err,
		)
	}
}

func (s *CatalogUpdateService) flushReindex(batchID string, productIDs []uint) int {
	if !s.options.ReindexEnabled || s.reindexQueue == nil || len(productIDs) == 0 {
		return 0
	}
	count, err := s.reindexQueue.EnqueueProductReindex(batchID, productIDs)
	if err != nil {
		logger.Errorw("catalog_reindex_enqueue_failed",
			"batch_id", batchID,
			"products", len(productIDs),
			"enqueued_tasks", count,
			"error", err,
		)
	}
	return count
}

func skuSkippedMessage(sku string, err error) string {
	if errors.Is(err, ErrProductNotFound) {
		return err.Error()
	}
	return fmt.Sprintf("SKU %s skipped: %s", sku, err.Error())
}
