package catalog

import "github.com/catalog-feed/internal/provider"

// Handler 商品字段更新与库存查询接口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
