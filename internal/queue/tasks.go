package queue

import (
	"encoding/json"
	"errors"

	"github.com/catalog-feed/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskProductReindex 商品重建索引任务
	TaskProductReindex = constants.TaskProductReindex
)

// ProductReindexPayload 重建索引任务载荷
type ProductReindexPayload struct {
	BatchID    string `json:"batch_id"`
	ProductIDs []uint `json:"product_ids"`
}

// NewProductReindexTask 创建重建索引任务
func NewProductReindexTask(payload ProductReindexPayload) (*asynq.Task, error) {
	if len(payload.ProductIDs) == 0 {
		return nil, errors.New("reindex payload has no product ids")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductReindex, body), nil
}

// ChunkProductIDs 按固定大小切分商品ID
func ChunkProductIDs(ids []uint, size int) [][]uint {
	if size <= 0 {
		size = constants.ReindexChunkSize
	}
	chunks := make([][]uint, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
