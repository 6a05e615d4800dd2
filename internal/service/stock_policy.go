package service

import (
	"github.com/catalog-feed/internal/models"

	"github.com/shopspring/decimal"
)

// normalizeStockQuantity 解析库存数量，负数按 0 处理
// 数量按 decimal(12,4) 存储精度四舍五入，有货标记基于舍入后的值，例如 0.00001 存为 0 且缺货。
func normalizeStockQuantity(value interface{}) (decimal.Decimal, error) {
	qty, ok := toDecimal(value)
	if !ok {
		return decimal.Zero, newInvalidValue("Stock quantity cannot be set to non-numeric value %q", describeValue(value))
	}
	if qty.IsNegative() {
		return decimal.Zero, nil
	}
	return qty.Round(models.QuantityScale), nil
}

// isInStock 有货标记只由数量决定，恰好为 0 视为缺货
func isInStock(qty decimal.Decimal) bool {
	return qty.GreaterThan(decimal.Zero)
}
