package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attribute 商品属性定义（EAV）
type Attribute struct {
	ID            uint   `gorm:"column:attribute_id;primarykey" json:"id"`
	AttributeCode string `gorm:"column:attribute_code;type:varchar(255);not null;uniqueIndex" json:"attribute_code"` // 属性编码
	BackendType   string `gorm:"column:backend_type;type:varchar(8);not null;default:'varchar'" json:"backend_type"` // 值存储类型
	FrontendLabel string `gorm:"column:frontend_label;type:varchar(255)" json:"frontend_label"`
}

// TableName 指定表名
func (Attribute) TableName() string {
	return "eav_attribute"
}

// 以下为各存储类型的值表，(attribute_id, entity_id) 唯一

// ProductVarcharValue varchar 属性值
type ProductVarcharValue struct {
	ID          uint   `gorm:"column:value_id;primarykey"`
	AttributeID uint   `gorm:"column:attribute_id;not null;uniqueIndex:idx_varchar_attr_entity"`
	EntityID    uint   `gorm:"column:entity_id;not null;uniqueIndex:idx_varchar_attr_entity;index"`
	Value       string `gorm:"column:value;type:varchar(255)"`
}

// TableName 指定表名
func (ProductVarcharValue) TableName() string {
	return "catalog_product_entity_varchar"
}

// ProductIntValue int 属性值
type ProductIntValue struct {
	ID          uint  `gorm:"column:value_id;primarykey"`
	AttributeID uint  `gorm:"column:attribute_id;not null;uniqueIndex:idx_int_attr_entity"`
	EntityID    uint  `gorm:"column:entity_id;not null;uniqueIndex:idx_int_attr_entity;index"`
	Value       int64 `gorm:"column:value"`
}

// TableName 指定表名
func (ProductIntValue) TableName() string {
	return "catalog_product_entity_int"
}

// ProductDecimalValue decimal 属性值
type ProductDecimalValue struct {
	ID          uint            `gorm:"column:value_id;primarykey"`
	AttributeID uint            `gorm:"column:attribute_id;not null;uniqueIndex:idx_decimal_attr_entity"`
	EntityID    uint            `gorm:"column:entity_id;not null;uniqueIndex:idx_decimal_attr_entity;index"`
	Value       decimal.Decimal `gorm:"column:value;type:decimal(20,6)"`
}

// TableName 指定表名
func (ProductDecimalValue) TableName() string {
	return "catalog_product_entity_decimal"
}

// ProductTextValue text 属性值
type ProductTextValue struct {
	ID          uint   `gorm:"column:value_id;primarykey"`
	AttributeID uint   `gorm:"column:attribute_id;not null;uniqueIndex:idx_text_attr_entity"`
	EntityID    uint   `gorm:"column:entity_id;not null;uniqueIndex:idx_text_attr_entity;index"`
	Value       string `gorm:"column:value;type:text"`
}

// TableName 指定表名
func (ProductTextValue) TableName() string {
	return "catalog_product_entity_text"
}

// ProductDatetimeValue datetime 属性值
type ProductDatetimeValue struct {
	ID          uint      `gorm:"column:value_id;primarykey"`
	AttributeID uint      `gorm:"column:attribute_id;not null;uniqueIndex:idx_datetime_attr_entity"`
	EntityID    uint      `gorm:"column:entity_id;not null;uniqueIndex:idx_datetime_attr_entity;index"`
	Value       time.Time `gorm:"column:value"`
}

// TableName 指定表名
func (ProductDatetimeValue) TableName() string {
	return "catalog_product_entity_datetime"
}
