package repository

import (
	"errors"

	"github.com/catalog-feed/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItemRepository 库存数据访问接口
type StockItemRepository interface {
	GetByProductID(productID uint) (*models.StockItem, error)
	ListByProductIDs(productIDs []uint) ([]models.StockItem, error)
	Create(item *models.StockItem) error
	UpdateQuantityAndStatus(productID uint, qty decimal.Decimal, inStock bool) (int64, error)
	UpdateStatus(productID uint, inStock bool) (int64, error)
	SumChildQuantity(parentID uint) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) StockItemRepository
}

// GormStockItemRepository GORM 实现
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewStockItemRepository 创建库存仓库
func NewStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockItemRepository) WithTx(tx *gorm.DB) StockItemRepository {
	if tx == nil {
		return r
	}
	return &GormStockItemRepository{db: tx}
}

// GetByProductID 获取商品库存行
func (r *GormStockItemRepository) GetByProductID(productID uint) (*models.StockItem, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var item models.StockItem
	if err := r.db.Where("product_id = ?", productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByProductIDs 批量获取库存行
func (r *GormStockItemRepository) ListByProductIDs(productIDs []uint) ([]models.StockItem, error) {
	if len(productIDs) == 0 {
		return []models.StockItem{}, nil
	}
	var items []models.StockItem
	if err := r.db.Where("product_id IN ?", productIDs).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建库存行
func (r *GormStockItemRepository) Create(item *models.StockItem) error {
	if item == nil {
		return errors.New("stock item is nil")
	}
	return r.db.Create(item).Error
}

// UpdateQuantityAndStatus 同一条语句写入数量与有货标记
func (r *GormStockItemRepository) UpdateQuantityAndStatus(productID uint, qty decimal.Decimal, inStock bool) (int64, error) {
	if productID == 0 {
		return 0, errors.New("invalid product id")
	}
	result := r.db.Model(&models.StockItem{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"qty":         models.NewQuantity(qty),
			"is_in_stock": inStock,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateStatus 仅写入有货标记（父商品回算使用，不触碰数量）
func (r *GormStockItemRepository) UpdateStatus(productID uint, inStock bool) (int64, error) {
	if productID == 0 {
		return 0, errors.New("invalid product id")
	}
	result := r.db.Model(&models.StockItem{}).
		Where("product_id = ?", productID).
		Update("is_in_stock", inStock)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumChildQuantity 汇总父商品下所有子商品的库存数量
// 没有库存行的子商品按 0 计入。
func (r *GormStockItemRepository) SumChildQuantity(parentID uint) (decimal.Decimal, error) {
	if parentID == 0 {
		return decimal.Zero, errors.New("invalid parent id")
	}
	links := models.SuperLink{}.TableName()
	stock := models.StockItem{}.TableName()

	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Table(links+" AS l").
		Select("COALESCE(SUM(s.qty), 0) AS total").
		Joins("LEFT JOIN "+stock+" AS s ON s.product_id = l.product_id").
		Where("l.parent_id = ?", parentID).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
