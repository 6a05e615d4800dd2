package models

import (
	"time"
)

// Product 商品主表（SKU 与内部 ID 的映射）
type Product struct {
	ID        uint      `gorm:"column:entity_id;primarykey" json:"id"`                                         // 内部商品ID
	SKU       string    `gorm:"column:sku;type:varchar(64);not null;uniqueIndex" json:"sku"`                  // 外部唯一编码
	TypeID    string    `gorm:"column:type_id;type:varchar(32);not null;default:'simple';index" json:"type"` // 商品类型（simple/configurable）
	CreatedAt time.Time `json:"created_at"`                                                                   // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                                   // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "catalog_product_entity"
}

// StockItem 商品库存表（每个商品一行）
type StockItem struct {
	ID        uint      `gorm:"column:item_id;primarykey" json:"id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex" json:"product_id"`                  // 商品ID
	Qty       Quantity  `gorm:"column:qty;type:decimal(12,4);not null;default:0" json:"qty"`              // 库存数量
	IsInStock bool      `gorm:"column:is_in_stock;not null;default:false;index" json:"is_in_stock"`       // 是否有货（由数量推导）
	UpdatedAt time.Time `json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (StockItem) TableName() string {
	return "cataloginventory_stock_item"
}

// SuperLink 子商品与父（组合）商品的关联
type SuperLink struct {
	ID        uint `gorm:"column:link_id;primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;not null;uniqueIndex:idx_super_link_product_parent" json:"product_id"`    // 子商品ID
	ParentID  uint `gorm:"column:parent_id;not null;index;uniqueIndex:idx_super_link_product_parent" json:"parent_id"` // 父商品ID
}

// TableName 指定表名
func (SuperLink) TableName() string {
	return "catalog_product_super_link"
}

// ProductWebsite 商品与站点的关联（重复写入忽略）
type ProductWebsite struct {
	ProductID uint `gorm:"column:product_id;primaryKey;autoIncrement:false" json:"product_id"`
	WebsiteID uint `gorm:"column:website_id;primaryKey;autoIncrement:false;index" json:"website_id"`
}

// TableName 指定表名
func (ProductWebsite) TableName() string {
	return "catalog_product_website"
}
