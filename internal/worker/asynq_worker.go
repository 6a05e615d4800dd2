package worker

import (
	"context"
	"encoding/json"

	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/provider"
	"github.com/catalog-feed/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskProductReindex, c.handleProductReindex)
}

func (c *Consumer) handleProductReindex(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_product_reindex_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ProductReindexPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_product_reindex_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.ProductIDs) == 0 {
		logger.Debugw("worker_product_reindex_skip_invalid_payload", "batch_id", payload.BatchID)
		return nil
	}
	if c.StockQueryService == nil {
		logger.Warnw("worker_product_reindex_skip_service_nil", "batch_id", payload.BatchID)
		return nil
	}
	refreshed, err := c.StockQueryService.RefreshByProductIDs(ctx, payload.ProductIDs)
	if err != nil {
		logger.Warnw("worker_product_reindex_failed",
			"batch_id", payload.BatchID,
			"products", len(payload.ProductIDs),
			"refreshed", refreshed,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_product_reindex_done",
		"batch_id", payload.BatchID,
		"products", len(payload.ProductIDs),
		"refreshed", refreshed,
	)
	return nil
}
