package repository

import (
	"errors"

	"github.com/catalog-feed/internal/models"

	"gorm.io/gorm"
)

// ProductWebsiteRepository 商品站点关联数据访问接口
type ProductWebsiteRepository interface {
	InsertIgnore(productID, websiteID uint) error
	ListWebsiteIDs(productID uint) ([]uint, error)
	WithTx(tx *gorm.DB) ProductWebsiteRepository
}

// GormProductWebsiteRepository GORM 实现
type GormProductWebsiteRepository struct {
	db *gorm.DB
}

// NewProductWebsiteRepository 创建站点关联仓库
func NewProductWebsiteRepository(db *gorm.DB) *GormProductWebsiteRepository {
	return &GormProductWebsiteRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductWebsiteRepository) WithTx(tx *gorm.DB) ProductWebsiteRepository {
	if tx == nil {
		return r
	}
	return &GormProductWebsiteRepository{db: tx}
}

// InsertIgnore 写入商品与站点关联，已存在时不报错
func (r *GormProductWebsiteRepository) InsertIgnore(productID, websiteID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	row := models.ProductWebsite{ProductID: productID, WebsiteID: websiteID}
	return r.db.Clauses(insertIgnoreClause(r.db, "product_id", "website_id")).Create(&row).Error
}

// ListWebsiteIDs 获取商品关联的站点ID
func (r *GormProductWebsiteRepository) ListWebsiteIDs(productID uint) ([]uint, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	ids := make([]uint, 0)
	if err := r.db.Model(&models.ProductWebsite{}).
		Where("product_id = ?", productID).
		Order("website_id ASC").
		Pluck("website_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
