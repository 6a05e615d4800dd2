package repository

import (
	"errors"

	"github.com/catalog-feed/internal/models"

	"gorm.io/gorm"
)

// SuperLinkRepository 父子商品关联数据访问接口
type SuperLinkRepository interface {
	ListParentIDs(childID uint) ([]uint, error)
	ListChildIDs(parentID uint) ([]uint, error)
	Create(link *models.SuperLink) error
	WithTx(tx *gorm.DB) SuperLinkRepository
}

// GormSuperLinkRepository GORM 实现
type GormSuperLinkRepository struct {
	db *gorm.DB
}

// NewSuperLinkRepository 创建关联仓库
func NewSuperLinkRepository(db *gorm.DB) *GormSuperLinkRepository {
	return &GormSuperLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSuperLinkRepository) WithTx(tx *gorm.DB) SuperLinkRepository {
	if tx == nil {
		return r
	}
	return &GormSuperLinkRepository{db: tx}
}

// ListParentIDs 获取子商品关联的父商品ID，无关联时返回空切片
func (r *GormSuperLinkRepository) ListParentIDs(childID uint) ([]uint, error) {
	if childID == 0 {
		return nil, errors.New("invalid product id")
	}
	ids := make([]uint, 0)
	if err := r.db.Model(&models.SuperLink{}).
		Where("product_id = ?", childID).
		Order("link_id ASC").
		Pluck("parent_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListChildIDs 获取父商品下的子商品ID
func (r *GormSuperLinkRepository) ListChildIDs(parentID uint) ([]uint, error) {
	if parentID == 0 {
		return nil, errors.New("invalid parent id")
	}
	ids := make([]uint, 0)
	if err := r.db.Model(&models.SuperLink{}).
		Where("parent_id = ?", parentID).
		Order("link_id ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create 创建关联
func (r *GormSuperLinkRepository) Create(link *models.SuperLink) error {
	if link == nil {
		return errors.New("super link is nil")
	}
	if link.ProductID == 0 || link.ParentID == 0 {
		return errors.New("invalid super link")
	}
	return r.db.Create(link).Error
}
