package provider

import (
	"time"

	"github.com/catalog-feed/internal/cache"
	"github.com/catalog-feed/internal/config"
	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/queue"
	"github.com/catalog-feed/internal/repository"
	"github.com/catalog-feed/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProductRepo        repository.ProductRepository
	StockItemRepo      repository.StockItemRepository
	SuperLinkRepo      repository.SuperLinkRepository
	ProductWebsiteRepo repository.ProductWebsiteRepository
	AttributeRepo      repository.AttributeRepository

	// Services
	AttributeService     *service.AttributeService
	CatalogUpdateService *service.CatalogUpdateService
	StockQueryService    *service.StockQueryService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库连接初始化容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.ProductRepo = repository.NewProductRepository(db)
	c.StockItemRepo = repository.NewStockItemRepository(db)
	c.SuperLinkRepo = repository.NewSuperLinkRepository(db)
	c.ProductWebsiteRepo = repository.NewProductWebsiteRepository(db)
	c.AttributeRepo = repository.NewAttributeRepository(db)
}

func (c *Container) initServices() {
	importCfg := c.Config.Import

	c.AttributeService = service.NewAttributeService(c.AttributeRepo)
	c.StockQueryService = service.NewStockQueryService(
		c.ProductRepo,
		c.StockItemRepo,
		time.Duration(importCfg.StockCacheTTLSeconds)*time.Second,
	)

	var reindexQueue service.ReindexPublisher
	if c.QueueClient != nil {
		reindexQueue = c.QueueClient
	} else if importCfg.ReindexEnabled {
		logger.Warnw("provider_reindex_queue_disabled", "reason", "queue not enabled")
	}

	c.CatalogUpdateService = service.NewCatalogUpdateService(
		c.ProductRepo,
		c.StockItemRepo,
		c.SuperLinkRepo,
		c.ProductWebsiteRepo,
		c.AttributeService,
		reindexQueue,
		c.buildParentLocker(),
		c.StockQueryService,
		service.CatalogUpdateOptions{
			MaxItemsPerRequest:    importCfg.MaxItemsPerRequest,
			IsolateParentFailures: importCfg.IsolateParentFailures,
			ReindexEnabled:        importCfg.ReindexEnabled,
		},
	)

}

// buildParentLocker 按配置选择父商品锁，redis 不可用时退化为进程内锁
func (c *Container) buildParentLocker() service.ParentLocker {
	switch c.Config.Import.NormalizedParentLock() {
	case constants.ParentLockLocal:
		return service.NewLocalParentLocker()
	case constants.ParentLockRedis:
		ttl := time.Duration(c.Config.Import.ParentLockTTLSeconds) * time.Second
		if locker := cache.NewRedisParentLocker(ttl); locker != nil {
			return locker
		}
		logger.Warnw("provider_redis_parent_lock_unavailable", "fallback", constants.ParentLockLocal)
		return service.NewLocalParentLocker()
	default:
		return nil
	}
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
