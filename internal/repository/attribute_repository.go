package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AttributeRepository 商品属性（EAV）数据访问接口
type AttributeRepository interface {
	GetByCode(code string) (*models.Attribute, error)
	Create(attribute *models.Attribute) error
	UpsertValue(attribute *models.Attribute, productID uint, value interface{}) error
	WithTx(tx *gorm.DB) AttributeRepository
}

// GormAttributeRepository GORM 实现
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository 创建属性仓库
func NewAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAttributeRepository) WithTx(tx *gorm.DB) AttributeRepository {
	if tx == nil {
		return r
	}
	return &GormAttributeRepository{db: tx}
}

// GetByCode 按属性编码获取属性定义
func (r *GormAttributeRepository) GetByCode(code string) (*models.Attribute, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, nil
	}
	var attribute models.Attribute
	if err := r.db.Where("attribute_code = ?", trimmed).First(&attribute).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attribute, nil
}

// Create 创建属性定义
func (r *GormAttributeRepository) Create(attribute *models.Attribute) error {
	if attribute == nil {
		return errors.New("attribute is nil")
	}
	return r.db.Create(attribute).Error
}

// UpsertValue 按属性存储类型写入商品属性值
// value 需已按存储类型转换：varchar/text 为 string，int 为 int64，decimal 为 decimal.Decimal，datetime 为 time.Time。
func (r *GormAttributeRepository) UpsertValue(attribute *models.Attribute, productID uint, value interface{}) error {
	if attribute == nil || attribute.ID == 0 {
		return errors.New("invalid attribute")
	}
	if productID == 0 {
		return errors.New("invalid product id")
	}

	var row interface{}
	switch attribute.BackendType {
	case constants.BackendTypeVarchar, constants.BackendTypeText:
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("attribute %s expects string value, got %T", attribute.AttributeCode, value)
		}
		if attribute.BackendType == constants.BackendTypeText {
			row = &models.ProductTextValue{AttributeID: attribute.ID, EntityID: productID, Value: text}
		} else {
			row = &models.ProductVarcharValue{AttributeID: attribute.ID, EntityID: productID, Value: text}
		}
	case constants.BackendTypeInt:
		number, ok := value.(int64)
		if !ok {
			return fmt.Errorf("attribute %s expects int64 value, got %T", attribute.AttributeCode, value)
		}
		row = &models.ProductIntValue{AttributeID: attribute.ID, EntityID: productID, Value: number}
	case constants.BackendTypeDecimal:
		amount, ok := value.(decimal.Decimal)
		if !ok {
			return fmt.Errorf("attribute %s expects decimal value, got %T", attribute.AttributeCode, value)
		}
		row = &models.ProductDecimalValue{AttributeID: attribute.ID, EntityID: productID, Value: amount}
	case constants.BackendTypeDatetime:
		at, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("attribute %s expects time value, got %T", attribute.AttributeCode, value)
		}
		row = &models.ProductDatetimeValue{AttributeID: attribute.ID, EntityID: productID, Value: at}
	default:
		return fmt.Errorf("unsupported backend type: %s", attribute.BackendType)
	}
	return r.db.Clauses(upsertValueClause()).Create(row).Error
}
