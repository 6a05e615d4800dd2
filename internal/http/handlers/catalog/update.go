package catalog

import (
	"net/http"

	"github.com/catalog-feed/internal/http/handlers/shared"
	"github.com/catalog-feed/internal/http/response"
	"github.com/catalog-feed/internal/service"

	"github.com/gin-gonic/gin"
)

const maxUpdateBodyBytes = 16 << 20

var updateErrorRules = []shared.MappedError{
	{Target: service.ErrInvalidUpdateFeed, Code: response.CodeBadRequest, Detail: true},
	{Target: service.ErrEmptyBatch, Code: response.CodeBadRequest, Message: "update batch is empty"},
	{Target: service.ErrBatchTooLarge, Code: response.CodeEntityTooLarge, Detail: true},
}

// PostUpdates 批量应用商品字段更新
// 请求体：{"items":[{"sku":"A","fields":{"qty":3,"website_id":[1]}}]}
func (h *Handler) PostUpdates(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpdateBodyBytes)
	items, err := service.DecodeUpdateItems(c.Request.Body)
	if err != nil {
		shared.RespondMappedError(c, err, updateErrorRules, response.CodeBadRequest, "invalid update feed")
		return
	}

	result, err := h.CatalogUpdateService.Apply(c.Request.Context(), items)
	if result != nil {
		c.Set("batch_id", result.BatchID)
	}
	if err != nil {
		if result != nil {
			shared.RequestLog(c).Warnw("catalog_update_batch_interrupted",
				"batch_id", result.BatchID,
				"updated", result.Updated,
				"error", err,
			)
		}
		shared.RespondMappedError(c, err, updateErrorRules, response.CodeInternal, "catalog update failed")
		return
	}

	shared.RequestLog(c).Infow("catalog_update_request_done",
		"batch_id", result.BatchID,
		"items", result.Items,
		"skipped", result.Skipped,
		"fields_skipped", result.FieldsSkipped,
	)
	response.Success(c, result)
}
