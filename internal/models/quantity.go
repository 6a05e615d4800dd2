package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// QuantityScale 库存数量保留的小数位，对应 decimal(12,4)
const QuantityScale = 4

// Quantity 库存数量类型（保留 4 位小数）
type Quantity struct {
	decimal.Decimal
}

// NewQuantity 从 decimal 创建数量
func NewQuantity(amount decimal.Decimal) Quantity {
	return Quantity{Decimal: amount.Round(QuantityScale)}
}

// NewQuantityFromInt 从整数创建数量
func NewQuantityFromInt(amount int64) Quantity {
	return Quantity{Decimal: decimal.NewFromInt(amount)}
}

// Positive 数量是否大于 0
func (q Quantity) Positive() bool {
	return q.Decimal.GreaterThan(decimal.Zero)
}

// MarshalJSON 输出字符串，避免浮点精度丢失
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON 解析数量（字符串或数字）
func (q *Quantity) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		q.Decimal = d.Round(QuantityScale)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return err
	}
	q.Decimal = d.Round(QuantityScale)
	return nil
}

// Value 用于数据库写入
func (q Quantity) Value() (driver.Value, error) {
	return q.Decimal.Round(QuantityScale).Value()
}

// Scan 用于数据库读取
func (q *Quantity) Scan(value interface{}) error {
	if value == nil {
		q.Decimal = decimal.Zero
		return nil
	}
	if err := q.Decimal.Scan(value); err != nil {
		return err
	}
	q.Decimal = q.Decimal.Round(QuantityScale)
	return nil
}

// String 去掉多余的尾随 0
func (q Quantity) String() string {
	return q.Decimal.Round(QuantityScale).String()
}
