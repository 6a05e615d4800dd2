package cache

import (
	"context"
	"strings"
	"time"

	"github.com/catalog-feed/internal/models"
)

const defaultStockStateTTL = 10 * time.Minute

// StockState 商品库存快照，仅用于 Redis 缓存
type StockState struct {
	ProductID uint            `json:"product_id"`
	SKU       string          `json:"sku"`
	TypeID    string          `json:"type_id"`
	Qty       models.Quantity `json:"qty"`
	IsInStock bool            `json:"is_in_stock"`
	UpdatedAt int64           `json:"updated_at"`
}

func stockStateKey(sku string) string {
	return "catalog:stock:" + strings.TrimSpace(sku)
}

// BuildStockState 从商品与库存行构建快照，库存行缺失时按 0 缺货处理
func BuildStockState(product *models.Product, item *models.StockItem) *StockState {
	if product == nil {
		return nil
	}
	state := &StockState{
		ProductID: product.ID,
		SKU:       product.SKU,
		TypeID:    product.TypeID,
		UpdatedAt: time.Now().Unix(),
	}
	if item != nil {
		state.Qty = item.Qty
		state.IsInStock = item.IsInStock
	}
	return state
}

// GetStockState 获取库存快照
func GetStockState(ctx context.Context, sku string) (*StockState, bool, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, false, nil
	}
	var state StockState
	hit, err := GetJSON(ctx, stockStateKey(sku), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetStockState 写入库存快照，ttl<=0 时使用默认值
func SetStockState(ctx context.Context, state *StockState, ttl time.Duration) error {
	if state == nil || strings.TrimSpace(state.SKU) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultStockStateTTL
	}
	return SetJSON(ctx, stockStateKey(state.SKU), state, ttl)
}

// DelStockState 删除库存快照
func DelStockState(ctx context.Context, sku string) error {
	if strings.TrimSpace(sku) == "" {
		return nil
	}
	return Del(ctx, stockStateKey(sku))
}
