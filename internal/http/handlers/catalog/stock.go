package catalog

import (
	"github.com/catalog-feed/internal/http/handlers/shared"
	"github.com/catalog-feed/internal/http/response"
	"github.com/catalog-feed/internal/service"

	"github.com/gin-gonic/gin"
)

var stockErrorRules = []shared.MappedError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Message: "product not found"},
}

// GetProductStock 查询商品库存快照
func (h *Handler) GetProductStock(c *gin.Context) {
	state, err := h.StockQueryService.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		shared.RespondMappedError(c, err, stockErrorRules, response.CodeInternal, "stock query failed")
		return
	}
	response.Success(c, state)
}
